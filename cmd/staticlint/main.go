// Command staticlint is the project's static analysis binary. It combines
// analyzers from the Go toolchain, a few third-party analyzers, the
// staticcheck SA checks and the project-specific rawhtml analyzer into a
// single multichecker.
//
// The staticcheck checks to run can be narrowed with a config.json placed
// next to the binary:
//
//	{"Staticcheck": ["SA1000", "SA4006"]}
//
// Without the file every SA check is enabled.
package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/shareride/cmd/staticlint/rawhtml"
)

// Config is the name of the JSON configuration file that lists enabled staticcheck analyzers.
const Config = `config.json`

// ConfigData describes the structure of the configuration file.
type ConfigData struct {
	Staticcheck []string
}

func loadConfig() (*ConfigData, error) {
	appfile, err := os.Executable()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), Config))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg ConfigData
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	myChecks := []*analysis.Analyzer{
		copylock.Analyzer,
		httpresponse.Analyzer, // unchecked errors before resp.Body.Close in tests
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer, // env/validate tags in config
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		rawhtml.Analyzer,
	}

	enabled := map[string]bool{}
	if cfg != nil {
		for _, name := range cfg.Staticcheck {
			enabled[name] = true
		}
	}

	for _, v := range staticcheck.Analyzers {
		name := v.Analyzer.Name
		if (cfg == nil && strings.HasPrefix(name, "SA")) || enabled[name] {
			myChecks = append(myChecks, v.Analyzer)
		}
	}

	multichecker.Main(myChecks...)
}
