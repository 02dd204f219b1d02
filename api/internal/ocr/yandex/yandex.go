// Package yandex recognizes text with Yandex Cloud Vision OCR over REST.
package yandex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"documind-bot/api/internal/ocr"
	"documind-bot/api/internal/util"
)

const defaultOCRURL = "https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText"

type Engine struct {
	iamc     *IamClient
	folderID string
	url      string
	opt      ocr.Options
	httpc    *http.Client
}

func New(oauthToken, folderID string, opt ocr.Options) *Engine {
	if opt.Model == "" {
		opt.Model = "page"
	}
	return &Engine{
		iamc:     NewIamClient(oauthToken),
		folderID: folderID,
		url:      defaultOCRURL,
		opt:      opt,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string { return "yandex" }

type request struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`      // JPEG | PNG | PDF
	LanguageCodes []string `json:"languageCodes,omitempty"` // ["uk","en"]
	Model         string   `json:"model,omitempty"`         // page | handwritten
}

type textAnnotation struct {
	FullText string `json:"fullText,omitempty"`
	Blocks   []struct {
		Lines []struct {
			Text string `json:"text,omitempty"`
		} `json:"lines,omitempty"`
	} `json:"blocks,omitempty"`
}

type response struct {
	Result *struct {
		TextAnnotation *textAnnotation `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	payload, _ := json.Marshal(request{
		Content:       base64.StdEncoding.EncodeToString(image),
		MimeType:      util.SniffMimeForOCR(image),
		LanguageCodes: e.opt.Langs,
		Model:         e.opt.Model,
	})

	resp, err := e.post(ctx, payload)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// one retry with a fresh IAM token
		resp.Body.Close()
		e.iamc.Invalidate()
		if resp, err = e.post(ctx, payload); err != nil {
			return "", err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("yandex ocr %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("yandex ocr decode: %w", err)
	}
	if out.Result == nil || out.Result.TextAnnotation == nil {
		return "", ocr.ErrNoText
	}
	ta := out.Result.TextAnnotation
	if t := strings.TrimSpace(ta.FullText); t != "" {
		return t, nil
	}
	var lines []string
	for _, b := range ta.Blocks {
		for _, l := range b.Lines {
			if s := strings.TrimSpace(l.Text); s != "" {
				lines = append(lines, s)
			}
		}
	}
	if len(lines) == 0 {
		return "", ocr.ErrNoText
	}
	return strings.Join(lines, "\n"), nil
}

func (e *Engine) post(ctx context.Context, payload []byte) (*http.Response, error) {
	iamToken, err := e.iamc.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", e.folderID)
	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yandex ocr: %w", err)
	}
	return resp, nil
}
