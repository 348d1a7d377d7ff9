package commands

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the web dashboard in browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}
			return runDash(env, printOnly)
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Only print the dashboard URL")

	return withRoute(cmd, router.Dashboard)
}

func runDash(env *Env, printOnly bool) error {
	path, _ := router.PathOf(router.Dashboard)
	dashboardURL := webURL(env.Config.Web.Addr) + path

	env.printf("URL: %s\n", dashboardURL)
	if printOnly {
		return nil
	}

	if err := openBrowser(dashboardURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
	}
	return nil
}

// webURL turns a listen address into a local URL
func webURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
