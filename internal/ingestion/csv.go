package ingestion

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// PreviewRows is the number of leading rows echoed in a CRM summary.
	PreviewRows = 5
	// TopValuesLimit caps every categorical distribution.
	TopValuesLimit = 10
	// MissingCell is how empty cells are rendered in the text table.
	MissingCell = "NaN"
)

type columnKind int

const (
	categorical columnKind = iota
	numeric
)

// crmColumns maps analysis keys to the header keywords that identify them.
// Order matters: a column is claimed by the first key that matches it.
var crmColumns = []struct {
	key      string
	keywords []string
	kind     columnKind
}{
	{"industry", []string{"industry", "sector", "vertical"}, categorical},
	{"location", []string{"country", "location", "region", "state", "city"}, categorical},
	{"department", []string{"department", "division", "team"}, categorical},
	{"job_title", []string{"function", "title", "role", "position", "job"}, categorical},
	{"deal_stage", []string{"stage", "pipeline", "phase", "status"}, categorical},
	{"deal_amount", []string{"amount", "value", "revenue", "price", "deal_amount"}, numeric},
	{"company_size", []string{"employee", "size", "headcount", "staff", "company_size"}, numeric},
}

// CRMResult is a parsed CRM export.
type CRMResult struct {
	FullContent string     `json:"full_content"`
	Summary     CRMSummary `json:"summary"`
}

// CRMSummary describes the shape of a CRM export and the distribution of its
// recognised columns. Distributions and Stats are flattened into the JSON
// object as "<key>_distribution" and "<key>_stats".
type CRMSummary struct {
	TotalRows     int
	TotalColumns  int
	Columns       []string
	Preview       []map[string]any
	Distributions map[string]Distribution
	Stats         map[string]NumericStats
}

// MarshalJSON flattens the per-column analysis into the summary object.
func (s CRMSummary) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"total_rows":    s.TotalRows,
		"total_columns": s.TotalColumns,
		"columns":       s.Columns,
		"preview":       s.Preview,
	}
	for key, dist := range s.Distributions {
		out[key+"_distribution"] = dist
	}
	for key, stats := range s.Stats {
		out[key+"_stats"] = stats
	}
	return json.Marshal(out)
}

// ValueCount is one entry of a categorical distribution.
type ValueCount struct {
	Value string
	Count int
}

// Distribution holds value counts, most frequent first.
type Distribution []ValueCount

// MarshalJSON encodes the distribution as an object that keeps count order.
func (d Distribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, vc := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(vc.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(vc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NumericStats summarises a numeric column. Values are rounded to 2 decimals.
type NumericStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

type crmTable struct {
	header []string
	rows   [][]string // padded to len(header)
}

// ParseCRM parses a CSV export with a header row. It returns a *ParseError when
// the file is empty, has no data rows or is malformed.
func ParseCRM(data []byte) (*CRMResult, error) {
	table, err := readCRMTable(data)
	if err != nil {
		return nil, err
	}

	summary := CRMSummary{
		TotalRows:     len(table.rows),
		TotalColumns:  len(table.header),
		Columns:       table.header,
		Preview:       table.preview(PreviewRows),
		Distributions: map[string]Distribution{},
		Stats:         map[string]NumericStats{},
	}
	table.analyze(&summary)

	return &CRMResult{
		FullContent: table.render(),
		Summary:     summary,
	}, nil
}

func readCRMTable(data []byte) (*crmTable, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Message: "CSV file is empty or has no data"}
	}
	if !utf8.Valid(data) {
		return nil, &ParseError{Message: "CSV parsing error: file is not valid UTF-8"}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Message: "CSV file is empty or has no data"}
		}
		return nil, &ParseError{Message: "CSV parsing error", Cause: err}
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
	}

	table := &crmTable{header: header}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Message: "CSV parsing error", Cause: err}
		}
		if len(record) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, &ParseError{Message: "CSV parsing error: expected " +
				strconv.Itoa(len(header)) + " fields in line " + strconv.Itoa(line) +
				", saw " + strconv.Itoa(len(record))}
		}
		row := make([]string, len(header))
		for i := range record {
			row[i] = strings.TrimSpace(record[i])
		}
		table.rows = append(table.rows, row)
	}

	if len(table.rows) == 0 {
		return nil, &ParseError{Message: "CSV file is empty or has no data rows"}
	}
	return table, nil
}

// column returns the non-empty values of column i.
func (t *crmTable) column(i int) []string {
	values := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		if row[i] != "" {
			values = append(values, row[i])
		}
	}
	return values
}

// numbers parses values as floats; ok is false when any value is not numeric.
func numbers(values []string) (nums []float64, ok bool) {
	nums = make([]float64, 0, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		nums = append(nums, f)
	}
	return nums, true
}

func (t *crmTable) isNumeric(i int) bool {
	_, ok := numbers(t.column(i))
	return ok
}

// preview returns the first n rows keyed by column name. Numeric columns
// keep numeric values and empty cells become null.
func (t *crmTable) preview(n int) []map[string]any {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	numericCols := make([]bool, len(t.header))
	for i := range t.header {
		numericCols[i] = t.isNumeric(i)
	}

	out := make([]map[string]any, 0, n)
	for _, row := range t.rows[:n] {
		record := make(map[string]any, len(t.header))
		for i, name := range t.header {
			switch {
			case row[i] == "":
				record[name] = nil
			case numericCols[i]:
				record[name] = cellNumber(row[i])
			default:
				record[name] = row[i]
			}
		}
		out = append(out, record)
	}
	return out
}

func cellNumber(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

// analyze fills the distributions and stats of recognised columns. Each key
// takes the first unclaimed column whose lowercased name contains one of its
// keywords.
func (t *crmTable) analyze(s *CRMSummary) {
	claimed := make([]bool, len(t.header))

	for _, spec := range crmColumns {
		for i, name := range t.header {
			if claimed[i] || !containsAny(strings.ToLower(name), spec.keywords) {
				continue
			}
			values := t.column(i)
			if nums, ok := numbers(values); spec.kind == numeric && ok {
				if len(nums) > 0 {
					s.Stats[spec.key] = describe(nums)
					claimed[i] = true
				}
			} else if dist := valueCounts(values, TopValuesLimit); len(dist) > 0 {
				s.Distributions[spec.key] = dist
				claimed[i] = true
			}
			break
		}
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// valueCounts orders values by count, ties by first appearance.
func valueCounts(values []string, limit int) Distribution {
	counts := map[string]int{}
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	dist := make(Distribution, 0, len(order))
	for _, v := range order {
		dist = append(dist, ValueCount{Value: v, Count: counts[v]})
	}
	sort.SliceStable(dist, func(i, j int) bool { return dist[i].Count > dist[j].Count })
	if len(dist) > limit {
		dist = dist[:limit]
	}
	return dist
}

func describe(nums []float64) NumericStats {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)

	var sum float64
	for _, n := range sorted {
		sum += n
	}
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return NumericStats{
		Mean:   round2(sum / float64(len(sorted))),
		Median: round2(median),
		Min:    round2(sorted[0]),
		Max:    round2(sorted[len(sorted)-1]),
		Count:  len(sorted),
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// render lays the table out as right-aligned text columns without an index.
func (t *crmTable) render() string {
	widths := make([]int, len(t.header))
	for i, name := range t.header {
		widths[i] = utf8.RuneCountInString(name)
	}
	cell := func(v string) string {
		if v == "" {
			return MissingCell
		}
		return v
	}
	for _, row := range t.rows {
		for i, v := range row {
			if w := utf8.RuneCountInString(cell(v)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(values []string) {
		for i, v := range values {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(v)))
			b.WriteString(v)
		}
	}
	writeRow(t.header)
	for _, row := range t.rows {
		b.WriteByte('\n')
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		writeRow(cells)
	}
	return b.String()
}
