// Package directive describes injected faults and how they travel between hops.
//
// A Directive names the hop that should act on it. Every other hop forwards
// it untouched as query parameters on its outbound call.
package directive

import (
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/iliamunaev/order-chain/internal/apperr"
)

// Query parameter names.
const (
	ParamTarget      = "customizeBehaviorTargetApp"
	ParamFailure     = "emulateFailure"
	ParamFailureCode = "httpFailureCode"
	ParamDelay       = "emulateDelay"
	ParamDelayMillis = "delayInMs"
)

const (
	DefaultTarget      = "tracking"
	DefaultFailureCode = http.StatusInternalServerError

	// MaxDelayMillis caps delayInMs at one hour.
	MaxDelayMillis = int(time.Hour / time.Millisecond)
)

var paramNames = []string{ParamTarget, ParamFailure, ParamFailureCode, ParamDelay, ParamDelayMillis}

// Directive is an injected fault addressed to one hop. The zero value
// requests nothing anywhere.
type Directive struct {
	Target      string
	Fail        bool
	FailureCode int
	Delay       bool
	DelayMillis int
}

// Present reports whether d carries any instruction at all.
func (d Directive) Present() bool { return d.Target != "" }

// ShouldActHere reports whether service is the hop d is addressed to.
func (d Directive) ShouldActHere(service string) bool {
	return d.Present() && strings.EqualFold(d.Target, service)
}

// DelayDuration is the requested suspension, zero when no delay is requested.
// It never exceeds MaxDelayMillis.
func (d Directive) DelayDuration() time.Duration {
	if !d.Delay {
		return 0
	}
	return time.Duration(min(d.DelayMillis, MaxDelayMillis)) * time.Millisecond
}

// params mirrors the wire encoding. Numeric fields stay strings so they are
// only validated when their flag asks for them.
type params struct {
	Target      string `mapstructure:"customizeBehaviorTargetApp"`
	Failure     bool   `mapstructure:"emulateFailure"`
	FailureCode string `mapstructure:"httpFailureCode"`
	Delay       bool   `mapstructure:"emulateDelay"`
	DelayMillis string `mapstructure:"delayInMs"`
}

// FromQuery decodes the directive carried by q. A query without any
// directive parameter yields the zero Directive.
func FromQuery(q url.Values) (Directive, error) {
	raw := make(map[string]any, len(paramNames))
	for _, name := range paramNames {
		if vs, ok := q[name]; ok && len(vs) > 0 {
			raw[name] = vs[0]
		}
	}
	if len(raw) == 0 {
		return Directive{}, nil
	}

	var p params
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: yesNoHook,
		Result:     &p,
	})
	if err != nil {
		return Directive{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Directive{}, apperr.BadRequest("decode directive: %v", err)
	}

	d := Directive{
		Target: strings.TrimSpace(p.Target),
		Fail:   p.Failure,
		Delay:  p.Delay,
	}
	if d.Target == "" {
		d.Target = DefaultTarget
	}

	if d.Fail {
		code := DefaultFailureCode
		if p.FailureCode != "" {
			code, err = strconv.Atoi(p.FailureCode)
			if err != nil {
				return Directive{}, apperr.BadRequest("%s must be an integer, got %q", ParamFailureCode, p.FailureCode)
			}
		}
		if code < 400 || code > 599 || code == apperr.StatusUpstreamTimeout {
			return Directive{}, apperr.BadRequest("%s %d is not an injectable status", ParamFailureCode, code)
		}
		d.FailureCode = code
	}

	if d.Delay && p.DelayMillis != "" {
		ms, err := strconv.Atoi(p.DelayMillis)
		if err != nil || ms < 0 {
			return Directive{}, apperr.BadRequest("%s must be a non-negative integer, got %q", ParamDelayMillis, p.DelayMillis)
		}
		if ms > MaxDelayMillis {
			return Directive{}, apperr.BadRequest("%s must not exceed %d, got %d", ParamDelayMillis, MaxDelayMillis, ms)
		}
		d.DelayMillis = ms
	}

	return d, nil
}

// Encode writes d into q using the same parameters FromQuery reads.
// A zero Directive writes nothing.
func (d Directive) Encode(q url.Values) {
	if !d.Present() {
		return
	}
	q.Set(ParamTarget, d.Target)
	q.Set(ParamFailure, yesNo(d.Fail))
	if d.Fail {
		q.Set(ParamFailureCode, strconv.Itoa(d.FailureCode))
	}
	q.Set(ParamDelay, yesNo(d.Delay))
	if d.Delay {
		q.Set(ParamDelayMillis, strconv.Itoa(d.DelayMillis))
	}
}

// yesNoHook decodes flag values: "yes" in any case is true, anything else false.
func yesNoHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	return strings.EqualFold(strings.TrimSpace(data.(string)), "yes"), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
