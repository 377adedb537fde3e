package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/promptforge/promptforge/ledger"
)

var leaderboardHeaders = []string{
	"Caso", "Tarea", "Profesor", "Runs",
	"Base%", "Opt%", "Rob%", "Std%",
	"Estado", "Delta%", "Ahorro/1k", "Break-even",
}

var caseHeaders = []string{"Caso", "Runs", "Base%", "Opt%", "Rob%", "Delta%"}

var anomalyHeaders = []string{"Run ID", "Caso", "Fuente", "Base%", "Opt%", "Rob%", "Razon"}

// maxAnomaliesShown caps the anomaly table in reports; the full count is
// still printed.
const maxAnomaliesShown = 10

func leaderboardRows(stats []GroupStat) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		savings, breakeven := "N/A", "N/A"
		if s.Savings1K != nil {
			savings = FormatCurrency(*s.Savings1K)
			breakeven = strconv.Itoa(*s.Breakeven)
		}
		rows = append(rows, []string{
			s.Key.Case,
			s.Key.TaskModel,
			s.Key.ReflectionModel,
			strconv.Itoa(s.Runs),
			FormatFloat(s.AvgBasePct, 2),
			FormatFloat(s.AvgOptPct, 2),
			FormatFloat(s.AvgRobPct, 2),
			FormatFloat(s.StdPct, 2),
			s.Stability,
			FormatSignedFloat(s.DeltaPct, 2),
			savings,
			breakeven,
		})
	}
	return rows
}

func caseRows(stats []CaseStat) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Case,
			strconv.Itoa(s.TotalRuns),
			FormatFloat(s.AvgBase, 2),
			FormatFloat(s.AvgOpt, 2),
			FormatFloat(s.AvgRob, 2),
			FormatSignedFloat(s.AvgDelta, 2),
		})
	}
	return rows
}

func anomalyRows(anomalies []Anomaly) [][]string {
	n := len(anomalies)
	if n > maxAnomaliesShown {
		n = maxAnomaliesShown
	}
	rows := make([][]string, 0, n)
	for _, a := range anomalies[:n] {
		rows = append(rows, []string{a.RunID, a.Case, a.Source, a.BasePct, a.OptPct, a.RobPct, a.Reason})
	}
	return rows
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

// WriteLeaderboardReport prints the full console report: leaderboard table,
// stability legend, per-case statistics and detected anomalies.
func WriteLeaderboardReport(w io.Writer, stats []GroupStat, cases []CaseStat, anomalies []Anomaly) {
	fmt.Fprintln(w, strings.Repeat("=", 120))
	fmt.Fprintln(w, "LEADERBOARD DE EXPERIMENTOS")
	fmt.Fprintln(w, strings.Repeat("=", 120))
	fmt.Fprintln(w)
	renderTable(w, leaderboardHeaders, leaderboardRows(stats))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "ESCALA DE ESTABILIDAD (Std/Escala):")
	fmt.Fprintln(w, "  Alta (<5%) | Buena (5-10%) | Atencion (10-15%) | Inestable (>15%)")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "ESTADISTICAS POR CASO:")
	renderTable(w, caseHeaders, caseRows(cases))

	if len(anomalies) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "ANOMALIAS DETECTADAS: %d\n", len(anomalies))
		renderTable(w, anomalyHeaders, anomalyRows(anomalies))
		if len(anomalies) > maxAnomaliesShown {
			fmt.Fprintf(w, "  ... y %d mas\n", len(anomalies)-maxAnomaliesShown)
		}
	}
}

// WriteLeaderboardCSV saves the leaderboard table in the same European
// format as the source data.
func WriteLeaderboardCSV(path string, stats []GroupStat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating leaderboard CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ledger.Delimiter
	if err := w.Write(leaderboardHeaders); err != nil {
		return err
	}
	if err := w.WriteAll(leaderboardRows(stats)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// WriteLeaderboardMarkdown saves the report as a Markdown document.
func WriteLeaderboardMarkdown(path string, stats []GroupStat, cases []CaseStat, anomalies []Anomaly) error {
	var b strings.Builder
	b.WriteString("# Leaderboard\n\n")
	b.WriteString("Generado: " + time.Now().Format("2006-01-02 15:04:05") + "\n\n")
	b.WriteString("## Leaderboard por Modelo\n\n")
	b.WriteString(markdownTable(leaderboardHeaders, leaderboardRows(stats)))
	b.WriteString("\n## Estadisticas por Caso\n\n")
	b.WriteString(markdownTable(caseHeaders, caseRows(cases)))
	if len(anomalies) > 0 {
		fmt.Fprintf(&b, "\n## Anomalias (%d)\n\n", len(anomalies))
		b.WriteString(markdownTable(anomalyHeaders, anomalyRows(anomalies)))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func markdownTable(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}
