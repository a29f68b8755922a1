package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"

	"chatbridge/internal/config"
	"chatbridge/internal/model"
	"chatbridge/internal/repository"
	"chatbridge/internal/timeconv"
	"chatbridge/internal/transcode"
)

// PresetExporter writes every LibreChat preset as an Open WebUI model file.
type PresetExporter struct {
	cfg    config.Config
	deps   Dependencies
	logger *slog.Logger
}

func NewPresetExporter(cfg config.Config, deps Dependencies, logger *slog.Logger) *PresetExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresetExporter{cfg: cfg, deps: deps.withDefaults(), logger: logger}
}

// Run exports all presets into OutputDir. Each success rewrites the combined
// file, so it always holds every model exported so far.
func (e *PresetExporter) Run(ctx context.Context) (model.Result, error) {
	var result model.Result

	if err := e.cfg.Validate(config.FlowPresets); err != nil {
		e.logger.Error("Aborting preset export", "error", err)
		return result, err
	}

	src, err := e.deps.OpenSource(ctx, e.cfg, e.logger)
	if err != nil {
		e.logger.Error("MongoDB connection failed. Aborting export.", "error", err)
		return result, err
	}
	defer func() {
		if err := src.Close(context.Background()); err != nil {
			e.logger.Warn("Failed to close MongoDB connection", "error", err)
		}
		e.logger.Info("MongoDB connection closed.")
	}()

	writer, err := repository.NewFileModelWriter(e.cfg.OutputDir)
	if err != nil {
		e.logger.Error("Cannot prepare output directory", "dir", e.cfg.OutputDir, "error", err)
		return result, err
	}

	cur, err := src.Presets(ctx)
	if err != nil {
		return result, fmt.Errorf("read presets: %w", err)
	}
	defer func() { _ = cur.Close(context.Background()) }()

	transcoder := transcode.NewPresetTranscoder(
		transcode.Owner{ID: e.cfg.TargetUserID, Name: e.cfg.TargetUserName, Email: e.cfg.TargetUserEmail},
		timeconv.NewNormalizer(e.deps.Now, e.logger),
	)

	e.logger.Info("Starting preset export...", "dir", e.cfg.OutputDir)
	var (
		exported    []model.ModelRecord
		combinedErr error
		loopErr     error
	)
	written := make(map[string]string)
	for cur.Next(ctx) {
		if err := ctx.Err(); err != nil {
			loopErr = err
			break
		}

		var p model.SourcePreset
		if err := cur.Decode(&p); err != nil {
			var raw bson.M
			_ = cur.Decode(&raw)
			e.logger.Error("Error processing preset", "title", raw["title"], "preset_id", raw["_id"], "error", err)
			result.Failed++
			continue
		}

		title := transcode.PresetTitle(p)
		e.logger.Info("Processing preset", "title", title)

		rec := transcoder.Transcode(p)
		name, err := writer.WriteModel(rec)
		if err != nil {
			e.logger.Error("Error processing preset", "title", title, "preset_id", p.ID.Hex(), "error", err)
			result.Failed++
			continue
		}
		if prev, ok := written[name]; ok {
			e.logger.Warn("Model file overwritten by a preset with the same sanitized title",
				"file", name, "previous_title", prev, "title", title)
		}
		written[name] = title
		e.logger.Info("Saved model file", "file", name)

		exported = append(exported, rec)
		result.Migrated++

		if err := writer.WriteCombined(exported); err != nil {
			e.logger.Error("Failed to update combined models file", "file", transcode.CombinedModelsFile, "error", err)
			combinedErr = err
		} else {
			combinedErr = nil
		}
	}
	if loopErr == nil {
		loopErr = cur.Err()
	}
	if loopErr != nil {
		e.logger.Error("Preset cursor stopped early", "error", loopErr, "exported", result.Migrated)
		return result, fmt.Errorf("read presets: %w", loopErr)
	}
	if combinedErr != nil {
		return result, fmt.Errorf("write %s: %w", transcode.CombinedModelsFile, combinedErr)
	}

	e.logger.Info("Preset export complete.",
		"exported", result.Migrated,
		"failed", result.Failed,
		"combined_file", transcode.CombinedModelsFile,
	)
	return result, nil
}
