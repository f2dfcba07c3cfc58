// # internal/report/sarif.go
package report

import (
	"encoding/json"
	"path/filepath"

	"github.com/google/uuid"

	"slotscan/internal/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDOverlap     = "SLOT001"
	ruleIDInheritance = "SLOT002"
	ruleIDMissing     = "SLOT003"
	ruleIDDuplicate   = "SLOT004"
	ruleIDImport      = "SLOT005"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool              `json:"tool"`
	AutomationDetails sarifAutomationDetails `json:"automationDetails"`
	Results           []sarifResult          `json:"results"`
}

type sarifAutomationDetails struct {
	GUID string `json:"guid"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from scan messages. All file
// URIs are made relative to projectRoot; absolute paths are never included
// so that reports are safe to share.
func GenerateSARIF(projectRoot string, msgs []Message) ([]byte, error) {
	results := make([]sarifResult, 0, len(msgs))
	relevant := make(map[string]bool)
	for _, m := range msgs {
		r := messageResult(projectRoot, m)
		relevant[r.RuleID] = true
		results = append(results, r)
	}

	doc := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "slotscan",
						Version: version.Version,
						Rules:   buildSARIFRules(relevant),
					},
				},
				AutomationDetails: sarifAutomationDetails{GUID: uuid.NewString()},
				Results:           results,
			},
		},
	}

	return json.MarshalIndent(doc, "", "  ")
}

func messageResult(projectRoot string, m Message) sarifResult {
	level := "note"
	if m.Error {
		level = "error"
	}
	result := sarifResult{
		Level:   level,
		Message: sarifMessage{Text: m.Notice.Display(false)},
	}
	switch n := m.Notice.(type) {
	case ModuleSkipped:
		result.RuleID = ruleIDImport
		result.Locations = []sarifLocation{moduleLocation(n.Module)}
	case OverlappingSlots:
		result.RuleID = ruleIDOverlap
		result.Locations = classLocations(projectRoot, n.Class)
	case BadSlotInheritance:
		result.RuleID = ruleIDInheritance
		result.Locations = classLocations(projectRoot, n.Class)
	case ShouldHaveSlots:
		result.RuleID = ruleIDMissing
		result.Locations = classLocations(projectRoot, n.Class)
	case DuplicateSlots:
		result.RuleID = ruleIDDuplicate
		result.Locations = classLocations(projectRoot, n.Class)
	}
	return result
}

// buildSARIFRules returns only the rules relevant for the given findings.
func buildSARIFRules(relevant map[string]bool) []sarifRule {
	all := []sarifRule{
		{
			ID:               ruleIDOverlap,
			Name:             "OverlappingSlots",
			ShortDescription: sarifMessage{Text: "A __slots__ declaration repeats names already slotted by an ancestor."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		},
		{
			ID:               ruleIDInheritance,
			Name:             "BadSlotInheritance",
			ShortDescription: sarifMessage{Text: "A slotted class inherits from a class without slots."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		},
		{
			ID:               ruleIDMissing,
			Name:             "ShouldHaveSlots",
			ShortDescription: sarifMessage{Text: "A class whose superclasses define __slots__ does not define them itself."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		},
		{
			ID:               ruleIDDuplicate,
			Name:             "DuplicateSlots",
			ShortDescription: sarifMessage{Text: "A __slots__ declaration lists the same name twice."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		},
		{
			ID:               ruleIDImport,
			Name:             "FailedImport",
			ShortDescription: sarifMessage{Text: "A module could not be loaded for checking."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		},
	}
	rules := make([]sarifRule, 0, len(all))
	for _, r := range all {
		if relevant[r.ID] {
			rules = append(rules, r)
		}
	}
	return rules
}

func classLocations(projectRoot string, c ClassRef) []sarifLocation {
	if c.File == "" {
		return nil
	}
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       relativeURI(projectRoot, c.File),
				URIBaseID: "%SRCROOT%",
			},
		},
	}
	if c.Line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{
			StartLine:   c.Line,
			StartColumn: c.Column,
		}
	}
	return []sarifLocation{loc}
}

// moduleLocation creates a SARIF location for a module name when no file
// path is available.
func moduleLocation(moduleName string) sarifLocation {
	// The module name serves as a synthetic URI; it is not a real path.
	return sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       moduleName,
				URIBaseID: "%SRCROOT%",
			},
		},
	}
}

// relativeURI converts an absolute file path to a forward-slash relative
// URI anchored at projectRoot. If the path is already relative or
// projectRoot is empty, the original path (with forward slashes) is
// returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}
