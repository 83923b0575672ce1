package detector

import (
	"LedgerBot/internal/entity"
)

// StrongSignalThreshold is the keyword weight above which a single match
// resolves the scope vote immediately without consulting further layers.
const StrongSignalThreshold = 0.90

// SignalIndex is the weighted phrase lookup driving the keyword layer.
// It is data, not code: loaded from a YAML file so accountants can tune
// phrases and weights without a rebuild. Weights are 0.0-1.0.
type SignalIndex struct {
	Operational      map[string]float64 `koanf:"operational"`
	Project          map[string]float64 `koanf:"project"`
	Ambiguous        []string           `koanf:"ambiguous"`
	OfficeRoles      []string           `koanf:"office_roles"`
	FieldRoles       []string           `koanf:"field_roles"`
	ProjectBlacklist []string           `koanf:"project_blacklist"`
}

type IDetector interface {
	Detect(text string) entity.ContextSignals
	HasTransactionSignal(text string) bool
	ExtractProjectName(text string) string
}
