package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/microfix/internal/app"
	"github.com/specialistvlad/microfix/internal/hcl"
	"github.com/specialistvlad/microfix/internal/pipeline"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an end-to-end test run.
type HarnessResult struct {
	Output    *SafeBuffer
	LogOutput string
	Result    *pipeline.Result
	Err       error
	App       *app.App
}

// RunAppTest writes files into a temporary directory, points the app's
// config path at it (unless files is empty), and runs the app once. Startup
// panics are recovered and reported through Err.
func RunAppTest(t *testing.T, files map[string]string, appConfig app.Config) *HarnessResult {
	t.Helper()

	if len(files) > 0 {
		tmpDir := t.TempDir()
		for name, content := range files {
			filePath := filepath.Join(tmpDir, name)
			require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
			require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
		}
		appConfig.ConfigPath = tmpDir
	}
	if appConfig.LogLevel == "" {
		appConfig.LogLevel = "debug"
	}
	if appConfig.LogFormat == "" {
		appConfig.LogFormat = "text"
	}

	out := &SafeBuffer{}
	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(out, logBuffer, &appConfig, hcl.NewLoader())
	}()

	if panicErr != nil {
		return &HarnessResult{
			Output:    out,
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}
	t.Cleanup(func() { _ = testApp.Close() })

	res, err := testApp.Run(context.Background())

	if os.Getenv("MICROFIX_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Output:    out,
		LogOutput: logBuffer.String(),
		Result:    res,
		Err:       err,
		App:       testApp,
	}
}
