package reports

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/borealgeo/arvault/internal/config"
	"github.com/borealgeo/arvault/pkg/apperror"
	"github.com/borealgeo/arvault/pkg/logger"
)

// builtinStrategies is the static jurisdiction table. Entries from an optional
// JURISDICTIONS_FILE are merged over it at startup; the table is never mutated
// afterwards.
var builtinStrategies = map[Jurisdiction]Strategy{
	JurisdictionQuebec: {
		ListingURL:   "https://gq.mines.gouv.qc.ca/documents/EXAMINE/%s/",
		ReportPrefix: "GM",
	},
	JurisdictionOntario: {
		ListingURL:    "https://www.geologyontario.mndm.gov.on.ca/mndmfiles/afri/data/records/%s.html",
		AlternateHost: "https://prd-0420-geoontario-0000-blob-cge0eud7azhvfsf7.z01.azurefd.net/lrc-geology-documents/assessment",
	},
	// New Brunswick publishes no scrapeable listing; jobs provision the
	// folder structure and templates only.
	JurisdictionNewBrunswick: {},
	JurisdictionSaskatchewan: {
		DirectFileURL: "https://mars.saskatchewan.ca/files/ar/%s.pdf",
	},
}

// Table resolves a jurisdiction to its retrieval strategy. Read-only after
// construction and safe to share across jobs.
type Table struct {
	strategies map[Jurisdiction]Strategy
}

// NewTable builds the strategy table, merging overrides from
// cfg.Reports.StrategiesFile when set.
func NewTable(cfg *config.Config, log *slog.Logger) (*Table, error) {
	strategies := make(map[Jurisdiction]Strategy, len(builtinStrategies))
	for k, v := range builtinStrategies {
		strategies[k] = v
	}

	if file := cfg.Reports.StrategiesFile; file != "" {
		overrides, err := loadStrategiesFile(file)
		if err != nil {
			return nil, fmt.Errorf("load jurisdiction strategies: %w", err)
		}
		for k, v := range overrides {
			strategies[k] = v
		}
		log.Info("jurisdiction strategy overrides loaded",
			logger.Scope("reports"),
			slog.String("file", file),
			slog.Int("entries", len(overrides)),
		)
	}

	return &Table{strategies: strategies}, nil
}

func loadStrategiesFile(path string) (map[Jurisdiction]Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var overrides map[Jurisdiction]Strategy
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

// Resolve looks up the strategy for a jurisdiction and checks the report id
// precondition. An unknown jurisdiction and an invalid jurisdiction/report
// combination are deliberately indistinguishable to the caller.
func (t *Table) Resolve(jurisdiction Jurisdiction, reportID string) (Strategy, error) {
	strat, ok := t.strategies[jurisdiction]
	if !ok {
		return Strategy{}, apperror.ErrUnsupportedJurisdiction
	}
	if !strat.AcceptsReportID(reportID) {
		return Strategy{}, apperror.ErrUnsupportedJurisdiction
	}
	return strat, nil
}
