package sample_test

import (
	"testing"

	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/internal/driver"
	"github.com/ncsforge/nscc/internal/sample"
	"github.com/ncsforge/nscc/ncs"
)

// Every sample must compile under both the oldest and the fixed VM
// configuration, and produce a well-formed container.
func TestSamplesCompile(t *testing.T) {
	for _, cfg := range []compilerconfig.Config{
		compilerconfig.Default(),
		compilerconfig.ForVersion(130),
	} {
		for _, name := range sample.Names() {
			p, err := sample.Build(name)
			if err != nil {
				t.Fatal(err)
			}
			result, err := driver.Compile(p, cfg, nil)
			if err != nil {
				t.Fatalf("%s (vm %d): %v", name, cfg.VMVersion, err)
			}
			if _, _, err := ncs.SplitHeader(result.Image); err != nil {
				t.Errorf("%s (vm %d): bad container: %v", name, cfg.VMVersion, err)
			}
			if _, err := result.RenderNDB(); err != nil {
				t.Errorf("%s (vm %d): NDB render: %v", name, cfg.VMVersion, err)
			}
		}
	}
}

func TestBuildUnknown(t *testing.T) {
	if _, err := sample.Build("no-such-sample"); err == nil {
		t.Error("unknown sample accepted")
	}
}
