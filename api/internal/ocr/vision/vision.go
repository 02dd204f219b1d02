// Package vision recognizes document text with Google Cloud Vision.
package vision

import (
	"context"
	"fmt"
	"strings"

	visionapi "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"documind-bot/api/internal/ocr"
)

// MaxImageBytes is the Vision limit for inline image content.
const MaxImageBytes = 20 * 1024 * 1024

type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

type Engine struct {
	client annotator
	langs  []string
}

// Credentials are taken from credJSON, then credFile, then the default chain.
func New(ctx context.Context, credJSON, credFile string, opt ocr.Options) (*Engine, error) {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(credJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	case strings.TrimSpace(credFile) != "":
		opts = append(opts, option.WithCredentialsFile(credFile))
	}
	client, err := visionapi.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &Engine{client: client, langs: opt.Langs}, nil
}

func newWithClient(client annotator, langs []string) *Engine {
	return &Engine{client: client, langs: langs}
}

func (e *Engine) Name() string { return "vision" }

func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) > MaxImageBytes {
		return "", fmt.Errorf("vision: image too large (%d bytes)", len(image))
	}
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			ImageContext: &visionpb.ImageContext{
				LanguageHints: e.langs,
			},
		}},
	}
	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", fmt.Errorf("vision: empty response")
	}
	r := resp.GetResponses()[0]
	if r.GetError() != nil && r.GetError().GetCode() != 0 {
		return "", fmt.Errorf("vision: %s", r.GetError().GetMessage())
	}
	if t := strings.TrimSpace(r.GetFullTextAnnotation().GetText()); t != "" {
		return t, nil
	}
	// TEXT_DETECTION style fallback: the first annotation holds the whole text.
	if anns := r.GetTextAnnotations(); len(anns) > 0 {
		if t := strings.TrimSpace(anns[0].GetDescription()); t != "" {
			return t, nil
		}
	}
	return "", ocr.ErrNoText
}

func (e *Engine) Close() error { return e.client.Close() }
