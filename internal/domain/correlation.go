package domain

import "gonum.org/v1/gonum/stat"

// CorrelationColumns names the numeric reading columns, in matrix order.
var CorrelationColumns = []string{"Temperature", "SmokeLevel", "FireRiskScore", "HourOfDay", "DayOfWeek"}

// CorrelationMatrix returns the pairwise Pearson correlation of the numeric
// reading columns. Entries involving a constant column are NaN.
func CorrelationMatrix(readings []EngineeredReading) [][]float64 {
	cols := make([][]float64, len(CorrelationColumns))
	for i := range cols {
		cols[i] = make([]float64, len(readings))
	}
	for j, r := range readings {
		cols[0][j] = r.Temperature
		cols[1][j] = r.SmokeLevel
		cols[2][j] = r.FireRiskScore
		cols[3][j] = float64(r.HourOfDay)
		cols[4][j] = float64(r.DayOfWeek)
	}

	m := make([][]float64, len(cols))
	for i := range cols {
		m[i] = make([]float64, len(cols))
		for k := range cols {
			m[i][k] = stat.Correlation(cols[i], cols[k], nil)
		}
	}
	return m
}
