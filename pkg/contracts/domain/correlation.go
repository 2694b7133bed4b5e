package domain

// CorrelationEntry is one tile of the long-form Pearson correlation matrix.
// When Defined is false the pair had no computable coefficient (zero
// variance or too few complete observations) and Value is zero; consumers
// must not treat that zero as a measured correlation.
type CorrelationEntry struct {
	MetricA string  `json:"metric_a"`
	MetricB string  `json:"metric_b"`
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}
