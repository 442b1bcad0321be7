package catalog

// TransformKind selects how the trailing change window is derived from
// the level window.
type TransformKind string

const (
	// TransformRatio expresses change as a year-over-year percentage.
	TransformRatio TransformKind = "ratio"
	// TransformDifference expresses change in the indicator's native units.
	TransformDifference TransformKind = "difference"
)

// SourceKind names the external provider an indicator is fetched from.
type SourceKind string

const (
	SourceFRED SourceKind = "fred"
	SourceBLS  SourceKind = "bls"
)

// Metric names the transformed value a rule is evaluated against.
type Metric string

const (
	MetricLatestLevel  Metric = "latest_level"
	MetricLatestChange Metric = "latest_change"
)

// Comparator is the direction of a threshold comparison.
type Comparator string

const (
	ComparatorLT Comparator = "lt"
	ComparatorGT Comparator = "gt"
)

// Indicator describes one tracked macro series.
// ID is the stable dispatch key; Label is presentation-only and is never
// used to route rules or thresholds.
type Indicator struct {
	ID             string        `yaml:"id" json:"id"`
	Label          string        `yaml:"label" json:"label"`
	Bucket         string        `yaml:"bucket" json:"bucket"`
	Source         SourceKind    `yaml:"source" json:"source"`
	SeriesID       string        `yaml:"series_id" json:"series_id"`
	Unit           string        `yaml:"unit" json:"unit"`
	InvertPolarity bool          `yaml:"invert" json:"invert"`
	Transform      TransformKind `yaml:"transform" json:"transform"`
}

// Rule maps one indicator metric onto a threshold comparison.
type Rule struct {
	Indicator    string     `yaml:"indicator" json:"indicator"`
	Metric       Metric     `yaml:"metric" json:"metric"`
	Comparator   Comparator `yaml:"comparator" json:"comparator"`
	ThresholdKey string     `yaml:"threshold" json:"threshold"`
}

// Window bounds the alignment and transform stages.
type Window struct {
	// Months is the trailing window length K shared by every indicator
	// on the dashboard. Must be >= 12.
	Months int `yaml:"months" json:"months"`
	// MaxGapMonths bounds forward-filling during alignment. Months
	// beyond the bound stay unavailable.
	MaxGapMonths int `yaml:"max_gap_months" json:"max_gap_months"`
}

// Meta identifies the catalog document.
type Meta struct {
	CatalogID string `yaml:"catalog_id" json:"catalog_id"`
	Version   string `yaml:"version" json:"version"`
}

// Catalog is the immutable, loaded-once description of every tracked
// indicator plus the threshold set and rule table used for signal
// evaluation. Constructed once per run; read-only thereafter.
type Catalog struct {
	Meta       Meta               `yaml:"meta" json:"meta"`
	Window     Window             `yaml:"window" json:"window"`
	Indicators []Indicator        `yaml:"indicators" json:"indicators"`
	Thresholds map[string]float64 `yaml:"thresholds" json:"thresholds"`
	Rules      []Rule             `yaml:"rules" json:"rules"`
}

// Indicator returns the indicator with the given id.
func (c *Catalog) Indicator(id string) (Indicator, bool) {
	for _, ind := range c.Indicators {
		if ind.ID == id {
			return ind, true
		}
	}
	return Indicator{}, false
}

// RulesFor returns all rules referencing the given indicator id.
func (c *Catalog) RulesFor(id string) []Rule {
	var rules []Rule
	for _, r := range c.Rules {
		if r.Indicator == id {
			rules = append(rules, r)
		}
	}
	return rules
}

// Sources returns the distinct source kinds used by the catalog.
func (c *Catalog) Sources() []SourceKind {
	seen := make(map[SourceKind]bool)
	var sources []SourceKind
	for _, ind := range c.Indicators {
		if !seen[ind.Source] {
			seen[ind.Source] = true
			sources = append(sources, ind.Source)
		}
	}
	return sources
}
