// Package ledger appends experiment results to a shared European-format CSV
// (semicolon delimiter, comma decimal separator) consumed by the analysis
// tooling and by spreadsheet users.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Delimiter is the European CSV field separator.
const Delimiter = ';'

// missingValue marks fields with no recorded data.
const missingValue = "N/A"

// Headers is the fixed column order of the results CSV. Downstream tooling
// and existing spreadsheets depend on it; never reorder.
var Headers = []string{
	"Run ID",
	"Fecha",
	"Caso",
	"Modelo Tarea",
	"Modelo Profesor",
	"Baseline Score",
	"Optimizado Score",
	"Robustez Score",
	"Run Directory",
	"Reflexion Positiva",
	"Budget",
	"Notas",
}

// Result is one experiment run. Nil scores are recorded as N/A.
type Result struct {
	RunID           string
	Date            string
	CaseName        string
	TaskModel       string
	ReflectionModel string
	BaselineScore   *float64
	OptimizedScore  *float64
	TestScore       *float64
	RunDir          string
	PositiveImpact  string
	Budget          int
	Notes           string
}

// Ledger is an append-only writer over the results CSV. A single mutex
// serializes appends; the file itself is the shared state between runs.
type Ledger struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open prepares a ledger at path, creating the file with headers when
// missing.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path, now: time.Now}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := l.writeHeaders(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) writeHeaders() error {
	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("creating ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = Delimiter
	if err := w.Write(Headers); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Append records one result, filling in the run ID and timestamp when the
// caller left them empty, and returns the run ID.
func (l *Ledger) Append(r Result) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.RunID == "" {
		r.RunID = NewRunID()
	}
	if r.Date == "" {
		r.Date = l.now().Format("2006-01-02 15:04:05")
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening ledger for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = Delimiter
	if err := w.Write(r.row()); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return r.RunID, nil
}

func (r Result) row() []string {
	budget := missingValue
	if r.Budget > 0 {
		budget = strconv.Itoa(r.Budget)
	}
	return []string{
		r.RunID,
		r.Date,
		orMissing(r.CaseName),
		orMissing(r.TaskModel),
		orMissing(r.ReflectionModel),
		FormatScore(r.BaselineScore),
		FormatScore(r.OptimizedScore),
		FormatScore(r.TestScore),
		orMissing(r.RunDir),
		orMissing(r.PositiveImpact),
		budget,
		r.Notes,
	}
}

func orMissing(s string) string {
	if s == "" {
		return missingValue
	}
	return s
}

// NewRunID returns a short unique run identifier, the first 8 characters of
// a UUID.
func NewRunID() string {
	return uuid.NewString()[:8]
}

// FormatScore renders a score with 4 decimals and a comma separator
// ("0,8523"). Nil renders as N/A.
func FormatScore(v *float64) string {
	if v == nil {
		return missingValue
	}
	return strings.Replace(strconv.FormatFloat(*v, 'f', 4, 64), ".", ",", 1)
}

// ParseScore reads a European-format score back into a float. Empty and N/A
// values are reported via ok=false.
func ParseScore(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == missingValue {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Score is a convenience for building optional score fields.
func Score(v float64) *float64 {
	return &v
}
