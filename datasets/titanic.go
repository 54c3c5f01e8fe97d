// Package datasets loads the Kaggle Titanic training data into gonum matrices.
package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/YuminosukeSato/titanic-ml/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Feature column names of the matrix built by LoadTitanic, in column order.
const (
	FeaturePclass    = "pclass"
	FeatureMale      = "male"
	FeatureAge       = "age"
	FeatureSibSp     = "sibsp"
	FeatureParch     = "parch"
	FeatureFare      = "fare"
	FeatureEmbarkedC = "embarked_c"
	FeatureEmbarkedQ = "embarked_q"
	FeatureEmbarkedS = "embarked_s"
)

var featureNames = []string{
	FeaturePclass, FeatureMale, FeatureAge, FeatureSibSp, FeatureParch,
	FeatureFare, FeatureEmbarkedC, FeatureEmbarkedQ, FeatureEmbarkedS,
}

// defaultPort fills missing Embarked values; Southampton is the most frequent port.
const defaultPort = "S"

var requiredColumns = []string{
	"PassengerId", "Survived", "Pclass", "Sex", "Age", "SibSp", "Parch", "Fare", "Embarked",
}

// FeatureNames returns the feature column names in matrix order.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// Dataset is a labelled feature matrix. Row i of X, Y[i] and PassengerIDs[i]
// describe the same passenger.
type Dataset struct {
	X            *mat.Dense
	Y            *mat.VecDense
	FeatureNames []string
	PassengerIDs []int
}

// Len returns the number of passengers.
func (d *Dataset) Len() int {
	if d == nil || d.Y == nil {
		return 0
	}
	return d.Y.Len()
}

// Subset returns a copy holding the given rows, in index order.
func (d *Dataset) Subset(indices []int) (*Dataset, error) {
	if len(indices) == 0 {
		return nil, errors.NewEmptyDataError("Dataset.Subset")
	}
	_, c := d.X.Dims()
	out := &Dataset{
		X:            mat.NewDense(len(indices), c, nil),
		Y:            mat.NewVecDense(len(indices), nil),
		FeatureNames: append([]string(nil), d.FeatureNames...),
		PassengerIDs: make([]int, len(indices)),
	}
	for i, idx := range indices {
		if idx < 0 || idx >= d.Len() {
			return nil, errors.NewValueError("Dataset.Subset", fmt.Sprintf("index %d out of range [0, %d)", idx, d.Len()))
		}
		out.X.SetRow(i, d.X.RawRowView(idx))
		out.Y.SetVec(i, d.Y.AtVec(idx))
		out.PassengerIDs[i] = d.PassengerIDs[idx]
	}
	return out, nil
}

// PositiveRate returns the share of survivors.
func (d *Dataset) PositiveRate() float64 {
	n := d.Len()
	if n == 0 {
		return 0
	}
	var pos float64
	for i := 0; i < n; i++ {
		pos += d.Y.AtVec(i)
	}
	return pos / float64(n)
}

type loadConfig struct {
	source string
	logger log.Logger
}

// LoadOption configures LoadTitanic.
type LoadOption func(*loadConfig)

// WithSourceName sets the source name attached to log entries.
func WithSourceName(name string) LoadOption {
	return func(c *loadConfig) {
		c.source = name
	}
}

// WithLoadLogger overrides the logger.
func WithLoadLogger(l log.Logger) LoadOption {
	return func(c *loadConfig) {
		c.logger = l
	}
}

// LoadTitanicFile opens path and calls LoadTitanic.
func LoadTitanicFile(path string, opts ...LoadOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	return LoadTitanic(f, append([]LoadOption{WithSourceName(path)}, opts...)...)
}

// rawRow holds a parsed CSV record before imputation.
type rawRow struct {
	id       int
	survived float64
	pclass   float64
	male     float64
	age      float64
	ageOK    bool
	sibsp    float64
	parch    float64
	fare     float64
	fareOK   bool
	embarked string
}

// LoadTitanic reads a Kaggle train.csv stream. Columns are located by header name.
// Missing Age and Fare are filled with the column median and missing Embarked with "S";
// each imputation emits a DataConversionWarning.
func LoadTitanic(r io.Reader, opts ...LoadOption) (*Dataset, error) {
	const op = "LoadTitanic"

	cfg := loadConfig{source: "reader", logger: log.GetLoggerWithName("datasets")}
	for _, opt := range opts {
		opt(&cfg)
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewEmptyDataError(op)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []rawRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d", line)
		}
		row, err := parseRow(record, cols, len(rows))
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", line)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.NewEmptyDataError(op)
	}

	ageMedian, ageMissing, err := impute(rows, func(r *rawRow) (*float64, bool) { return &r.age, r.ageOK })
	if err != nil {
		return nil, errors.Wrap(err, "column Age")
	}
	fareMedian, fareMissing, err := impute(rows, func(r *rawRow) (*float64, bool) { return &r.fare, r.fareOK })
	if err != nil {
		return nil, errors.Wrap(err, "column Fare")
	}
	if ageMissing > 0 {
		errors.Warn(errors.NewDataConversionWarning("missing", "median",
			fmt.Sprintf("%d Age values imputed with %.2f", ageMissing, ageMedian)))
	}
	if fareMissing > 0 {
		errors.Warn(errors.NewDataConversionWarning("missing", "median",
			fmt.Sprintf("%d Fare values imputed with %.4f", fareMissing, fareMedian)))
	}

	portMissing := 0
	for i := range rows {
		if rows[i].embarked == "" {
			rows[i].embarked = defaultPort
			portMissing++
		}
	}
	if portMissing > 0 {
		errors.Warn(errors.NewDataConversionWarning("missing", "mode",
			fmt.Sprintf("%d Embarked values set to %q", portMissing, defaultPort)))
	}

	ds := &Dataset{
		X:            mat.NewDense(len(rows), len(featureNames), nil),
		Y:            mat.NewVecDense(len(rows), nil),
		FeatureNames: FeatureNames(),
		PassengerIDs: make([]int, len(rows)),
	}
	for i, row := range rows {
		ds.X.SetRow(i, []float64{
			row.pclass, row.male, row.age, row.sibsp, row.parch, row.fare,
			indicator(row.embarked == "C"), indicator(row.embarked == "Q"), indicator(row.embarked == "S"),
		})
		ds.Y.SetVec(i, row.survived)
		ds.PassengerIDs[i] = row.id
	}

	cfg.logger.Info("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, cfg.source,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, len(featureNames),
		log.PositiveRateKey, ds.PositiveRate(),
	)
	return ds, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, errors.NewValidationError("header", "missing required column "+name, strings.Join(header, ","))
		}
	}
	return cols, nil
}

func parseRow(record []string, cols map[string]int, index int) (rawRow, error) {
	const op = "LoadTitanic"

	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	number := func(name string) (float64, bool, error) {
		s := field(name)
		if s == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, errors.NewValueError(op, fmt.Sprintf("column %s: cannot parse %q as a number", name, s))
		}
		return v, true, nil
	}
	required := func(name string) (float64, error) {
		v, ok, err := number(name)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, errors.NewValueError(op, fmt.Sprintf("column %s: value is required", name))
		}
		return v, nil
	}

	var row rawRow
	var err error

	id, err := required("PassengerId")
	if err != nil {
		return row, err
	}
	row.id = int(id)

	if row.survived, err = required("Survived"); err != nil {
		return row, err
	}
	if row.survived != 0 && row.survived != 1 {
		return row, errors.NewInvalidLabelError(op, index, row.survived)
	}

	if row.pclass, err = required("Pclass"); err != nil {
		return row, err
	}
	if row.pclass != 1 && row.pclass != 2 && row.pclass != 3 {
		return row, errors.NewValueError(op, fmt.Sprintf("column Pclass: %v is not 1, 2 or 3", row.pclass))
	}

	switch sex := strings.ToLower(field("Sex")); sex {
	case "male":
		row.male = 1
	case "female":
	default:
		return row, errors.NewValueError(op, fmt.Sprintf("column Sex: unknown value %q", sex))
	}

	if row.age, row.ageOK, err = number("Age"); err != nil {
		return row, err
	}
	if row.fare, row.fareOK, err = number("Fare"); err != nil {
		return row, err
	}
	if row.sibsp, err = required("SibSp"); err != nil {
		return row, err
	}
	if row.parch, err = required("Parch"); err != nil {
		return row, err
	}

	switch port := strings.ToUpper(field("Embarked")); port {
	case "", "C", "Q", "S":
		row.embarked = port
	default:
		return row, errors.NewValueError(op, fmt.Sprintf("column Embarked: unknown port %q", port))
	}

	return row, nil
}

// impute fills the missing values selected by get with the median of the present ones.
func impute(rows []rawRow, get func(*rawRow) (*float64, bool)) (median float64, missing int, err error) {
	present := make([]float64, 0, len(rows))
	for i := range rows {
		if v, ok := get(&rows[i]); ok {
			present = append(present, *v)
		}
	}
	if len(present) == 0 {
		return 0, 0, errors.NewValueError("LoadTitanic", "no values to compute a median from")
	}

	median = medianOf(present)
	for i := range rows {
		if v, ok := get(&rows[i]); !ok {
			*v = median
			missing++
		}
	}
	return median, missing, nil
}

// medianOf sorts x in place and returns its median, averaging the middle pair for even lengths.
func medianOf(x []float64) float64 {
	sort.Float64s(x)
	n := len(x)
	if n%2 == 1 {
		return x[n/2]
	}
	return (x[n/2-1] + x[n/2]) / 2
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
