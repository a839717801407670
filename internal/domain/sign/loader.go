package sign

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// keyDelim is the koanf path delimiter. Sign keys may contain dots and
// spaces, so the default "." is not usable here.
const keyDelim = "::"

// Load reads a dictionary from a YAML file shaped as
//
//	signs:
//	  hello:
//	    - {left_arm: 45, right_arm: 90, left_hand: palm-out, right_hand: palm-out, description: ...}
//
// It is meant to run once at startup; the result is immutable.
func Load(ctx context.Context, path string) (*Dictionary, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}

	var raw map[string][]PoseKeyframe
	if err := k.UnmarshalWithConf("signs", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: no signs defined", ErrLoad, path)
	}
	return New(raw)
}
