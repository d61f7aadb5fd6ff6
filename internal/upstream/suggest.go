package upstream

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tabhome/tabhome/internal/config"
	"github.com/tidwall/gjson"
)

const (
	maxSuggestions = 8
	defaultEngine  = "google"
)

var errInvalidSuggestions = errors.New("invalid suggestion response")

// suggestProvider knows the request shape and response format of one suggestion API.
type suggestProvider struct {
	caller *caller
	url    func(query string) string
	parse  func(body []byte) ([]string, error)
}

func (p *suggestProvider) fetch(ctx context.Context, query string) ([]string, error) {
	body, err := p.caller.get(ctx, p.url(query), nil)
	if err != nil {
		return nil, err
	}
	return p.parse(body)
}

// SuggestClient dispatches suggestion queries to the API of the selected engine.
type SuggestClient struct {
	providers map[string]*suggestProvider
}

func NewSuggestClient(cfg *config.SuggestConfig, timeout time.Duration, bc *config.BreakerConfig) *SuggestClient {
	baidu := &suggestProvider{
		caller: newCaller("suggest_baidu", timeout, bc),
		url:    withQuery(cfg.BaiduURL, func(q string) url.Values { return url.Values{"wd": {q}, "cb": {""}} }),
		parse:  parseJSONP,
	}
	return &SuggestClient{
		providers: map[string]*suggestProvider{
			"google": {
				caller: newCaller("suggest_google", timeout, bc),
				url:    withQuery(cfg.GoogleURL, func(q string) url.Values { return url.Values{"client": {"firefox"}, "q": {q}} }),
				parse:  parseOpenSearch,
			},
			"bing": {
				caller: newCaller("suggest_bing", timeout, bc),
				url:    withQuery(cfg.BingURL, func(q string) url.Values { return url.Values{"query": {q}} }),
				parse:  parseOpenSearch,
			},
			"baidu": baidu,
			"百度":    baidu,
		},
	}
}

// Suggestions returns at most 8 suggestions for query, in upstream order.
// Unknown engines use Google. Failures yield an empty list.
func (s *SuggestClient) Suggestions(ctx context.Context, query, engine string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}
	}

	engine = strings.ToLower(strings.TrimSpace(engine))
	provider, ok := s.providers[engine]
	if !ok {
		provider = s.providers[defaultEngine]
	}

	suggestions, err := provider.fetch(ctx, query)
	if err != nil {
		return []string{}
	}
	return lo.Slice(suggestions, 0, maxSuggestions)
}

func withQuery(endpoint string, params func(q string) url.Values) func(string) string {
	return func(q string) string {
		return endpoint + "?" + params(q).Encode()
	}
}

// parseOpenSearch reads the OpenSearch suggestion format: [query, [suggestions...], ...].
func parseOpenSearch(body []byte) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidSuggestions
	}
	return stringArray(gjson.GetBytes(body, "1")), nil
}

// jsonpWrapper matches `callback(...)`, `(...)` and a trailing semicolon around the payload.
var jsonpWrapper = regexp.MustCompile(`(?s)^(?:[A-Za-z_$][\w$.]*)?\s*\((.*)\)\s*;?$`)

// parseJSONP strips the callback wrapper, if any, and reads the "s" field of the payload.
func parseJSONP(body []byte) ([]string, error) {
	payload := strings.TrimSpace(string(body))
	if m := jsonpWrapper.FindStringSubmatch(payload); m != nil {
		payload = m[1]
	}
	if !gjson.Valid(payload) {
		return nil, errInvalidSuggestions
	}
	return stringArray(gjson.Get(payload, "s")), nil
}

func stringArray(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}
