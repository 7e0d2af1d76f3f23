package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"go.uber.org/zap"
)

// Use case input/output DTOs

type ImportArchiveInput struct {
	Archive []byte
	Config  *Config
	DryRun  bool
}

type ImportPageInput struct {
	Page   string
	Config *Config
	DryRun bool
}

type ImportOutput struct {
	Result  *ImportResult
	Planned []PlannedFile
	// Diffs holds one rendered diff per planned file on dry runs.
	Diffs []string
}

// Use cases

type ImportArchiveUseCase struct {
	pipeline *pipeline
}

func NewImportArchiveUseCase(sink Sink, logger *zap.Logger, now func() time.Time) *ImportArchiveUseCase {
	return &ImportArchiveUseCase{pipeline: newPipeline(sink, logger, now)}
}

// Execute runs a bulk import of a zip export. Attachments are copied before
// any memo is written; a copy failure is logged and does not stop the run.
func (uc *ImportArchiveUseCase) Execute(ctx context.Context, input ImportArchiveInput) (*ImportOutput, error) {
	if len(input.Archive) == 0 {
		return nil, ErrInputMissing
	}
	cfg := configOrDefault(input.Config)
	log := uc.pipeline.logger

	archive, err := OpenArchive(input.Archive)
	if err != nil {
		return nil, err
	}
	page, err := archive.ExportPage()
	if err != nil {
		return nil, err
	}

	attachDir := AttachmentFolder(uc.pipeline.sink, cfg.AttachmentTarget)
	copied := 0
	if src, ok := archive.AttachmentDir(); !ok {
		log.Debug("export has no attachments folder")
	} else if !input.DryRun {
		copied, err = uc.pipeline.sink.CopyTree(archive.Filesystem(), src, attachDir)
		if err != nil {
			log.Warn("copy attachments", zap.String("target", attachDir), zap.Error(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := uc.pipeline.run(ctx, page, cfg, cfg.BulkLayout(attachDir), input.DryRun)
	if err != nil {
		return nil, err
	}
	out.Result.AttachmentsCopied = copied
	return out, nil
}

type ImportPageUseCase struct {
	pipeline *pipeline
}

func NewImportPageUseCase(sink Sink, logger *zap.Logger, now func() time.Time) *ImportPageUseCase {
	return &ImportPageUseCase{pipeline: newPipeline(sink, logger, now)}
}

// Execute runs an adhoc import of an already extracted export page.
func (uc *ImportPageUseCase) Execute(ctx context.Context, input ImportPageInput) (*ImportOutput, error) {
	cfg := configOrDefault(input.Config)
	return uc.pipeline.run(ctx, input.Page, cfg, cfg.AdhocLayout(), input.DryRun)
}

// ReadInput loads an archive or page from disk.
func ReadInput(name string) ([]byte, error) {
	if name == "" {
		return nil, ErrInputMissing
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInputMissing, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// pipeline is normalize, extract, reconcile, group and write for one page.
type pipeline struct {
	sink   Sink
	logger *zap.Logger
	now    func() time.Time
}

func newPipeline(sink Sink, logger *zap.Logger, now func() time.Time) *pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &pipeline{sink: sink, logger: logger, now: now}
}

func (p *pipeline) run(ctx context.Context, page string, cfg *Config, layout Layout, dryRun bool) (*ImportOutput, error) {
	normalized, err := Normalize(page)
	if err != nil {
		return nil, err
	}
	export, err := Extract(normalized)
	if err != nil {
		return nil, err
	}

	memos := ApplyIdentityFallback(export.Memos, cfg.IdentityFallback)
	rec := Reconcile(memos, cfg.SyncedMemoIDs)
	planned := AssignPaths(Group(rec.Kept), layout)
	for i, pf := range planned {
		if pf.Sections == nil {
			continue
		}
		if existing, err := p.sink.ReadText(pf.Path); err == nil {
			planned[i].Content = pf.MergeInto(existing)
		}
	}

	p.logger.Info("reconciled export",
		zap.Int("total", len(memos)),
		zap.Int("new", len(rec.Kept)),
		zap.Int("files", len(planned)),
	)

	result := &ImportResult{
		TotalMemoCount: len(memos),
		NewMemoCount:   len(rec.Kept),
	}
	out := &ImportOutput{Result: result, Planned: planned}

	if dryRun {
		result.UpdatedSyncedIDs = rec.UpdatedSyncedIDs
		result.LastSyncTime = cfg.LastSyncTime
		for _, pf := range planned {
			before, _ := p.sink.ReadText(pf.Path)
			out.Diffs = append(out.Diffs, RenderDiff(pf.Path, before, pf.Content))
		}
		return out, nil
	}

	failedIDs := p.write(ctx, planned, result)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.UpdatedSyncedIDs = withoutIDs(rec.UpdatedSyncedIDs, failedIDs)
	result.LastSyncTime = p.now().UnixMilli()

	p.writeArtifacts(cfg, layout, result)

	return out, nil
}

// write ensures every distinct parent directory once, then writes files in
// plan order. A failed file is recorded and the remaining writes continue.
func (p *pipeline) write(ctx context.Context, planned []PlannedFile, result *ImportResult) map[string]bool {
	failedIDs := make(map[string]bool)
	dirErrs := make(map[string]error)

	for _, pf := range planned {
		dir := path.Dir(pf.Path)
		if _, seen := dirErrs[dir]; seen {
			continue
		}
		dirErrs[dir] = p.sink.EnsureDir(dir)
	}

	for _, pf := range planned {
		if ctx.Err() != nil {
			return failedIDs
		}

		err := dirErrs[path.Dir(pf.Path)]
		if err == nil {
			err = p.sink.WriteText(pf.Path, pf.Content)
		}
		if err != nil {
			p.logger.Error("write memo file", zap.String("path", pf.Path), zap.Error(err))
			result.Failures = append(result.Failures, WriteFailure{Path: pf.Path, Err: err})
			result.NewMemoCount -= pf.MemoCount
			for _, id := range pf.MemoIDs {
				failedIDs[id] = true
			}
			continue
		}

		p.logger.Debug("wrote memo file", zap.String("path", pf.Path))
		result.Written = append(result.Written, pf.Path)
	}

	return failedIDs
}

func (p *pipeline) writeArtifacts(cfg *Config, layout Layout, result *ImportResult) {
	if cfg.OptionsMoments == OptionSkip && cfg.OptionsCanvas == OptionSkip {
		return
	}

	files, err := ListMemoFiles(p.sink, layout)
	if err != nil {
		p.logger.Warn("list memo files", zap.Error(err))
		return
	}
	if err := p.sink.EnsureDir(cfg.FlomoTarget); err != nil {
		p.recordArtifact(cfg.FlomoTarget, err, result)
		return
	}

	if cfg.OptionsMoments != OptionSkip {
		name := path.Join(cfg.FlomoTarget, MomentsFile)
		content, err := BuildMoments(p.sink, files, cfg.OptionsMoments, p.now())
		if err == nil {
			err = p.sink.WriteText(name, content)
		}
		p.recordArtifact(name, err, result)
	}

	if cfg.OptionsCanvas != OptionSkip {
		name := path.Join(cfg.FlomoTarget, CanvasFile)
		content := ""
		canvas, err := BuildCanvas(p.sink, files, cfg.OptionsCanvas, cfg.CanvasSize)
		if err == nil {
			content, err = canvas.Render()
		}
		if err == nil {
			err = p.sink.WriteText(name, content)
		}
		p.recordArtifact(name, err, result)
	}
}

func (p *pipeline) recordArtifact(name string, err error, result *ImportResult) {
	if err != nil {
		p.logger.Error("write artifact", zap.String("path", name), zap.Error(err))
		result.Failures = append(result.Failures, WriteFailure{Path: name, Err: err})
		return
	}
	result.Written = append(result.Written, name)
}

func configOrDefault(cfg *Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return cfg
}
