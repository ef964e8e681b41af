// Package assist formats raw card content as Markdown and suggests tags. A
// remote model is used when configured; every failure falls back to the local
// formatter so card creation never fails because of it.
package assist

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ProviderLocal  = "local"
	ProviderGemini = "gemini"
)

// Remote is an external formatting/tagging model.
type Remote interface {
	FormatAndTag(ctx context.Context, raw string) (content string, tags []string, err error)
	Name() string
}

// Result is what create/edit flows feed back into the card.
type Result struct {
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Assisted bool     `json:"assisted"`
	Provider string   `json:"provider"`
	// Notice is set when the remote failed and the local fallback answered.
	Notice string `json:"notice,omitempty"`
}

type Service struct {
	remote  Remote
	timeout time.Duration
	log     *zap.Logger
}

// NewService builds a Service. remote may be nil, in which case everything is
// formatted locally.
func NewService(remote Remote, timeout time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{remote: remote, timeout: timeout, log: log}
}

// Enabled reports whether a remote model is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.remote != nil
}

var errEmptyContent = errors.New("remote returned empty content")

// FormatAndTag formats raw and suggests tags.
func (s *Service) FormatAndTag(ctx context.Context, raw string) Result {
	local := Result{
		Content:  SimpleFormat(raw),
		Provider: ProviderLocal,
	}
	local.Tags = ExtractTags(local.Content)
	if !s.Enabled() {
		return local
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	content, tags, err := s.remote.FormatAndTag(ctx, raw)
	if err == nil && strings.TrimSpace(content) == "" {
		err = errEmptyContent
	}
	if err != nil {
		s.log.Warn("assist: remote formatting failed, using local formatter",
			zap.String("provider", s.remote.Name()), zap.Error(err))
		local.Notice = "Formatting assistant unavailable, content was formatted locally."
		return local
	}

	res := Result{
		Content:  SimpleFormat(content),
		Tags:     dedupeTags(tags, maxRemoteTags),
		Assisted: true,
		Provider: s.remote.Name(),
	}
	if len(res.Tags) == 0 {
		res.Tags = local.Tags
	}
	return res
}

// Format only reformats content; suggested tags are dropped.
func (s *Service) Format(ctx context.Context, raw string) Result {
	res := s.FormatAndTag(ctx, raw)
	res.Tags = nil
	return res
}

const maxRemoteTags = 8

func dedupeTags(tags []string, limit int) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == limit {
			break
		}
	}
	return out
}
