package scoring

// #region verdict

// Verdict is the hiring recommendation.
type Verdict string

const (
	StrongHire Verdict = "Strong Hire"
	Hire       Verdict = "Hire"
	Borderline Verdict = "Borderline"
	NoHire     Verdict = "No Hire"
)

// #endregion verdict

// #region config

// Weights are the per-dimension shares of the final score. They should sum to 1.
type Weights struct {
	TechnicalCorrectness float64 `mapstructure:"technical_correctness"`
	ProblemSolving       float64 `mapstructure:"problem_solving"`
	Reasoning            float64 `mapstructure:"reasoning"`
	CodeQuality          float64 `mapstructure:"code_quality"`
	Communication        float64 `mapstructure:"communication"`
	InterviewReadiness   float64 `mapstructure:"interview_readiness"`
}

// Config holds the scoring rubric.
type Config struct {
	Weights            Weights `mapstructure:"weights"`
	MonitorPenalty     int     `mapstructure:"monitor_penalty"`  // integrity points per monitor warning
	ExternalPenalty    int     `mapstructure:"external_penalty"` // integrity points per external warning
	IntegrityThreshold int     `mapstructure:"integrity_threshold"`
	StrongHireAt       float64 `mapstructure:"strong_hire_at"`
	HireAt             float64 `mapstructure:"hire_at"`
	BorderlineAt       float64 `mapstructure:"borderline_at"`
}

// DefaultConfig returns the 30/20/15/15/10/10 rubric.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			TechnicalCorrectness: 0.30,
			ProblemSolving:       0.20,
			Reasoning:            0.15,
			CodeQuality:          0.15,
			Communication:        0.10,
			InterviewReadiness:   0.10,
		},
		MonitorPenalty:     10,
		ExternalPenalty:    20,
		IntegrityThreshold: 50,
		StrongHireAt:       85,
		HireAt:             70,
		BorderlineAt:       50,
	}
}

// #endregion config

// #region scores

// Scores are six 0-10 sub-scores.
type Scores struct {
	TechnicalCorrectness float64 `json:"technical_correctness" yaml:"technical_correctness"`
	ProblemSolving       float64 `json:"problem_solving" yaml:"problem_solving"`
	Reasoning            float64 `json:"reasoning" yaml:"reasoning"`
	CodeQuality          float64 `json:"code_quality" yaml:"code_quality"`
	Communication        float64 `json:"communication" yaml:"communication"`
	InterviewReadiness   float64 `json:"interview_readiness" yaml:"interview_readiness"`
}

// #endregion scores

// #region result

// Metric is one weighted contribution to the final score.
type Metric struct {
	Name   string
	Score  float64
	Weight float64
}

// Result is the outcome of scoring one session.
type Result struct {
	Integrity       int
	FinalScore      float64
	Verdict         Verdict
	IntegrityBreach bool
	Metrics         []Metric
	Reason          string
}

// #endregion result
