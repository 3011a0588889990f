package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aodata/market-ingest/internal/model"
)

// ReferenceStore receives the loaded reference data.
type ReferenceStore interface {
	UpsertLocations(ctx context.Context, locations []model.Location) error
	UpsertItems(ctx context.Context, items []model.Item) error
	UpsertLocalizedNames(ctx context.Context, names []model.LocalizedText) error
	UpsertLocalizedDescriptions(ctx context.Context, descriptions []model.LocalizedText) error
}

// Config holds the reference-data file paths. An empty path skips that file.
type Config struct {
	LocationsPath     string
	LocalizationsPath string
}

// Loader reads the reference files and upserts them at startup.
type Loader struct {
	cfg    Config
	store  ReferenceStore
	logger *slog.Logger
}

// NewLoader creates a bootstrap loader.
func NewLoader(cfg Config, store ReferenceStore, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Run loads both files. Any error is fatal to the caller.
func (l *Loader) Run(ctx context.Context) error {
	start := time.Now()

	if l.cfg.LocalizationsPath != "" {
		if err := l.loadLocalizations(ctx, l.cfg.LocalizationsPath); err != nil {
			return fmt.Errorf("bootstrap localizations: %w", err)
		}
	}
	if l.cfg.LocationsPath != "" {
		if err := l.loadLocations(ctx, l.cfg.LocationsPath); err != nil {
			return fmt.Errorf("bootstrap locations: %w", err)
		}
	}

	l.logger.Info("reference data loaded", "duration", time.Since(start))
	return nil
}

// locationWire is the locations file format: [{"Index": "0007", "UniqueName": "Thetford"}].
type locationWire struct {
	Index      string `json:"Index"`
	UniqueName string `json:"UniqueName"`
}

func (l *Loader) loadLocations(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var wires []locationWire
	if err := json.Unmarshal(data, &wires); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	locations := make([]model.Location, len(wires))
	for i, w := range wires {
		locations[i] = model.Location{ID: w.Index, Name: w.UniqueName}
	}

	if err := l.store.UpsertLocations(ctx, locations); err != nil {
		return err
	}

	l.logger.Info("locations loaded", "count", len(locations))
	return nil
}

// localizationWire is the localizations file format; names and descriptions
// are optional per item.
type localizationWire struct {
	UniqueName            string              `json:"UniqueName"`
	LocalizedNames        *localizedValueWire `json:"LocalizedNames"`
	LocalizedDescriptions *localizedValueWire `json:"LocalizedDescriptions"`
}

type localizedValueWire struct {
	EnUS string `json:"EN-US"`
	DeDE string `json:"DE-DE"`
	FrFR string `json:"FR-FR"`
	RuRU string `json:"RU-RU"`
	PlPL string `json:"PL-PL"`
	EsES string `json:"ES-ES"`
	PtBR string `json:"PT-BR"`
	ItIT string `json:"IT-IT"`
	ZhCN string `json:"ZH-CN"`
	KoKR string `json:"KO-KR"`
	JaJP string `json:"JA-JP"`
	ZhTW string `json:"ZH-TW"`
	IDID string `json:"ID-ID"`
	TrTR string `json:"TR-TR"`
	ArSA string `json:"AR-SA"`
}

func (w *localizedValueWire) toModel(item string) model.LocalizedText {
	return model.LocalizedText{
		ItemUniqueName: item,
		EnUS:           w.EnUS,
		DeDE:           w.DeDE,
		FrFR:           w.FrFR,
		RuRU:           w.RuRU,
		PlPL:           w.PlPL,
		EsES:           w.EsES,
		PtBR:           w.PtBR,
		ItIT:           w.ItIT,
		ZhCN:           w.ZhCN,
		KoKR:           w.KoKR,
		JaJP:           w.JaJP,
		ZhTW:           w.ZhTW,
		IDID:           w.IDID,
		TrTR:           w.TrTR,
		ArSA:           w.ArSA,
	}
}

func (l *Loader) loadLocalizations(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var wires []localizationWire
	if err := json.Unmarshal(data, &wires); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	items := make([]model.Item, 0, len(wires))
	names := make([]model.LocalizedText, 0, len(wires))
	descriptions := make([]model.LocalizedText, 0, len(wires))

	for _, w := range wires {
		items = append(items, model.Item{UniqueName: w.UniqueName})
		if w.LocalizedNames != nil {
			names = append(names, w.LocalizedNames.toModel(w.UniqueName))
		}
		if w.LocalizedDescriptions != nil {
			descriptions = append(descriptions, w.LocalizedDescriptions.toModel(w.UniqueName))
		}
	}

	if err := l.store.UpsertItems(ctx, items); err != nil {
		return err
	}
	if err := l.store.UpsertLocalizedNames(ctx, names); err != nil {
		return err
	}
	if err := l.store.UpsertLocalizedDescriptions(ctx, descriptions); err != nil {
		return err
	}

	l.logger.Info("localizations loaded",
		"items", len(items),
		"names", len(names),
		"descriptions", len(descriptions),
	)
	return nil
}
