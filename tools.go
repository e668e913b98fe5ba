//go:build goloader

package instantiator

import (
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/pkujhd/goloader"
)

// Compile go sources of package pkg into the relocatable object file out.
//
// The sources must only import unsafe: no importcfg is generated for them.
func Compile(pkg, out string, sources ...string) (err error) {
	if _, err = exec.LookPath("go"); err != nil {
		return fmt.Errorf("missing go sdk: %w", err)
	}
	cmd := exec.Command("go", append([]string{"tool", "compile", "-p", pkg, "-o", out}, sources...)...)
	log.Debug("execute", "args", cmd.Args)
	var b []byte
	if b, err = cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("compile %s: %w\n%s", pkg, err, b)
	}
	return
}

// Inspect display symbols inside an object file
func Inspect(file, pkg string) ([]string, error) {
	return goloader.Parse(file, pkg)
}
