// Package orchestrator coordinates one end-to-end run of the pipeline for
// a single blob: metadata load, fact distillation, vision hints, describe,
// translate, normalize, and persist.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stelladora/alt-text-pipeline/internal/describer"
	"github.com/stelladora/alt-text-pipeline/internal/metadata"
	"github.com/stelladora/alt-text-pipeline/internal/pipelineerr"
	"github.com/stelladora/alt-text-pipeline/internal/translator"
	"github.com/stelladora/alt-text-pipeline/internal/vision"
	"github.com/stelladora/alt-text-pipeline/pkg/internal/media"
	"github.com/stelladora/alt-text-pipeline/pkg/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AltTextResult is the persisted sidecar document.
type AltTextResult struct {
	Asset       string            `json:"asset"`
	Image       string            `json:"image"`
	Source      string            `json:"source"`
	AltText     map[string]string `json:"altText"`
	GeneratedAt string            `json:"generatedAt"`
}

// TagSet is the set of index tags applied to a processed image blob.
type TagSet struct {
	Processed string
	AltV      string
	Langs     string
}

// AsMap renders the tag set as the {processed, alt.v, langs} map the
// storage client's SetTags expects.
func (t TagSet) AsMap() map[string]string {
	return map[string]string{
		"processed": t.Processed,
		"alt.v":     t.AltV,
		"langs":     t.Langs,
	}
}

// objectStore is the subset of internal/storage.Client the orchestrator
// needs.
type objectStore interface {
	Read(ctx context.Context, container, blob string) ([]byte, error)
	Write(ctx context.Context, container, blob string, data []byte, contentType string) error
	SetTags(ctx context.Context, container, blob string, tags map[string]string) error
	Copy(ctx context.Context, srcContainer, srcBlob, dstContainer, dstBlob string) error
	DataURL(ctx context.Context, container, blob string) (string, error)
	ReadYamlMetadata(ctx context.Context, container, blobName string) (metadata.Document, error)
}

// Orchestrator runs the pipeline for one blob at a time.
type Orchestrator struct {
	store         objectStore
	describer     describer.Describer
	translator    translator.Translator
	defaultLocale []string

	ingestContainer string
	publicContainer string

	telemetry *telemetry.Settings

	now func() time.Time
}

// New builds an Orchestrator wired to the given collaborators.
func New(store objectStore, desc describer.Describer, trans translator.Translator, defaultLocales []string, ingestContainer, publicContainer string, settings *telemetry.Settings) *Orchestrator {
	if settings == nil {
		settings = telemetry.DefaultSettings()
	}
	return &Orchestrator{
		store:           store,
		describer:       desc,
		translator:      trans,
		defaultLocale:   defaultLocales,
		ingestContainer: ingestContainer,
		publicContainer: publicContainer,
		telemetry:       settings,
		now:             time.Now,
	}
}

// Input is what the handler passes in for one blob-created event, or a
// direct /describe request.
type Input struct {
	BlobName string

	// SuppliedMetadata, if non-nil, is used instead of fetching the YAML
	// sidecar.
	SuppliedMetadata *metadata.Document

	// SuppliedDescription, if non-empty, overrides the metadata
	// document's description field for fact distillation.
	SuppliedDescription string
}

// Output is what the orchestrator returns for a successful run.
type Output struct {
	AltJSON     AltTextResult
	Tags        TagSet
	WriteResult string
}

// Run executes steps 1-11 of the pipeline algorithm for one image.
func (o *Orchestrator) Run(ctx context.Context, in Input) (Output, error) {
	tracer := telemetry.GetTracer(o.telemetry)
	attrs := telemetry.GetBaseAttributes("orchestrator", in.BlobName, o.telemetry, nil)

	return telemetry.RecordSpan(ctx, tracer, telemetry.SpanOptions{
		Name:        "orchestrator.run",
		Attributes:  attrs,
		EndWhenDone: true,
	}, func(ctx context.Context, span trace.Span) (Output, error) {
		return o.run(ctx, span, in)
	})
}

func (o *Orchestrator) run(ctx context.Context, span trace.Span, in Input) (Output, error) {
	doc, err := o.loadMetadata(ctx, in)
	if err != nil {
		doc = metadata.Document{}
	}

	languages := doc.Languages
	if len(languages) == 0 {
		languages = o.defaultLocale
	}

	description := doc.Description
	if in.SuppliedDescription != "" {
		description = in.SuppliedDescription
	}
	facts := metadata.Distill(description)

	hints := vision.Derive(in.BlobName, nil, doc.Angle)

	imageRef, err := o.store.DataURL(ctx, o.ingestContainer, in.BlobName)
	if err != nil {
		return Output{}, pipelineerr.NewRemoteError("storage", 0, "", err)
	}

	descResult, err := o.describer.Describe(ctx, in.BlobName, imageRef, doc, facts, hints)
	if err != nil {
		return Output{}, pipelineerr.NewRemoteError("describer", 0, "", err)
	}
	if descResult.AltEn == "" {
		return Output{}, fmt.Errorf("describer produced empty alt_en for %s", in.BlobName)
	}

	normalizedLangs := normalizeLanguages(languages)
	targetLangs := without(normalizedLangs, "en")

	telemetry.AddSettingsAttributes(span, "pipeline.run", map[string]interface{}{
		"languages":   strings.Join(normalizedLangs, ","),
		"hasMetadata": doc.Source != "",
	})

	translations, err := o.translator.Translate(ctx, descResult.AltEn, targetLangs)
	if err != nil {
		return Output{}, pipelineerr.NewRemoteError("translator", 0, "", err)
	}

	altText := map[string]string{"en": descResult.AltEn}
	for lang, text := range translations {
		altText[lang] = text
	}

	assetID := doc.Asset
	if assetID == "" {
		assetID = uuid.New().String()
	}

	stem := stemOf(in.BlobName)
	result := AltTextResult{
		Asset:       assetID,
		Image:       in.BlobName,
		Source:      doc.Source,
		AltText:     altText,
		GeneratedAt: o.now().UTC().Format(time.RFC3339),
	}

	sidecarBlob := stem + ".alt.json"
	if err := o.persist(ctx, sidecarBlob, result); err != nil {
		return Output{}, pipelineerr.NewRemoteError("storage", 0, "", err)
	}

	tags := TagSet{
		Processed: "true",
		AltV:      "1",
		Langs:     strings.Join(normalizedLangs, ","),
	}
	if err := o.store.SetTags(ctx, o.ingestContainer, in.BlobName, tags.AsMap()); err != nil {
		// Non-fatal: logged only, per the tag-set-failure policy.
		log.Printf("orchestrator: set tags on %s: %v", in.BlobName, err)
		span.SetAttributes(attribute.Bool("pipeline.tag_set_failed", true))
	}

	if !strings.HasSuffix(in.BlobName, ".json") {
		if err := o.store.Copy(ctx, o.ingestContainer, in.BlobName, o.publicContainer, in.BlobName); err != nil {
			return Output{}, pipelineerr.NewRemoteError("storage", 0, "", err)
		}
	}

	return Output{AltJSON: result, Tags: tags, WriteResult: sidecarBlob}, nil
}

func (o *Orchestrator) loadMetadata(ctx context.Context, in Input) (metadata.Document, error) {
	if in.SuppliedMetadata != nil {
		return *in.SuppliedMetadata, nil
	}
	return o.store.ReadYamlMetadata(ctx, o.ingestContainer, in.BlobName)
}

func (o *Orchestrator) persist(ctx context.Context, blob string, result AltTextResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return o.store.Write(ctx, o.ingestContainer, blob, raw, "application/json")
}

func normalizeLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if len(l) > 2 {
			l = l[:2]
		}
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func without(langs []string, exclude string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		if l != exclude {
			out = append(out, l)
		}
	}
	return out
}

func stemOf(blobName string) string {
	idx := strings.LastIndex(blobName, ".")
	if idx < 0 {
		return blobName
	}
	return blobName[:idx]
}

// IsImage reports whether blobName has a recognized image extension,
// delegating to the shared media-detection helper.
func IsImage(blobName string) bool {
	return media.IsImageBlob(blobName)
}
