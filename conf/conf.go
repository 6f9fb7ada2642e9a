// Package conf loads assembler configuration the way the teacher's
// conf package does: struct-tag defaults registered with viper, then
// overridden by an optional config file and environment variables.
// Unlike the teacher, LoadConfig is called explicitly by the host
// process rather than from an init() that panics if no file is
// present — this package is imported as a library, not run as
// its own binary.
package conf

import (
	"os"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const tagName = "default"

// Configuration groups every tunable spec.md's components read.
type Configuration struct {
	Mining struct {
		BlockMaxWeight    int    `default:"3996000"`
		BlockMaxSize      int    `default:"2000000"`
		BlockPrioritySize int64  `default:"0"`
		BlockMinTxFee     int64  `default:"1000"`
		BlockVersion      int32  `default:"536870912"`
		CoinbaseFlags     string `default:"/blockassembler/"`
		ProofOfStake      bool   `default:"false"`
	}
	Mempool struct {
		AncestorSizeLimit    int `default:"101"`
		AncestorCountLimit   int `default:"25"`
		DescendantSizeLimit  int `default:"101"`
		DescendantCountLimit int `default:"25"`
		RejectCacheSize      int `default:"120000"`
	}
	Log struct {
		Dir     string `default:"./logs"`
		Level   string `default:"info"`
		Modules string `default:"mining,mempool,staking"`
	}
}

// LoadConfig registers struct-tag defaults, then, if configPath is
// non-empty, overlays a YAML file, then overlays "ASSEMBLER_"-prefixed
// environment variables — highest precedence last, matching the
// teacher's default/file/env layering.
func LoadConfig(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix("assembler")
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(v, reflect.TypeOf(Configuration{}), "")

	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, errors.Wrapf(err, "opening config file %s", configPath)
		}
		defer f.Close()
		if err := v.ReadConfig(f); err != nil {
			return nil, errors.Wrapf(err, "parsing config file %s", configPath)
		}
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling configuration")
	}
	return cfg, nil
}

func registerDefaults(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := prefix + field.Name
		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, field.Type, key+".")
			continue
		}
		if def := field.Tag.Get(tagName); def != "" {
			v.SetDefault(key, def)
		}
	}
}
