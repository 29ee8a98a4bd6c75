package cli

import (
	"bytes"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fastertools/signals-mcp/internal/auth"
	"github.com/fastertools/signals-mcp/internal/config"
	"github.com/fastertools/signals-mcp/internal/signals"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCommandExecution helps test cobra command execution
type TestCommandExecution struct {
	Command      *cobra.Command
	Args         []string
	ExpectError  bool
	ExpectOutput []string
	Setup        func(t *testing.T)
	Validate     func(t *testing.T, output string, err error)
}

// ExecuteCommandTest runs a command test with proper setup/teardown
func ExecuteCommandTest(t *testing.T, test TestCommandExecution) {
	t.Helper()
	if test.Setup != nil {
		test.Setup(t)
	}

	// Capture output, including the color helpers
	var stdout, stderr bytes.Buffer
	CaptureHelperOutput(t, &stdout, &stderr)
	test.Command.SetOut(&stdout)
	test.Command.SetErr(&stderr)
	test.Command.SetArgs(test.Args)

	err := test.Command.Execute()

	if test.ExpectError {
		assert.Error(t, err)
	} else {
		assert.NoError(t, err)
	}

	output := stdout.String() + stderr.String()
	for _, expected := range test.ExpectOutput {
		assert.Contains(t, output, expected)
	}

	if test.Validate != nil {
		test.Validate(t, output, err)
	}
}

// CaptureHelperOutput redirects Success/Info and Error/Warn output for the test.
func CaptureHelperOutput(t *testing.T, stdout, stderr *bytes.Buffer) {
	t.Helper()
	oldOut, oldErr, oldNoColor := colorOutput, errOutput, color.NoColor
	colorOutput, errOutput = stdout, stderr
	color.NoColor = true
	t.Cleanup(func() {
		colorOutput, errOutput, color.NoColor = oldOut, oldErr, oldNoColor
	})
}

// MockSurveyAskOne mocks survey.AskOne for testing interactive prompts.
// Responses are consumed in order; the last one repeats.
func MockSurveyAskOne(responses ...interface{}) func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	i := 0
	return func(p survey.Prompt, resp interface{}, opts ...survey.AskOpt) error {
		response := responses[i]
		if i < len(responses)-1 {
			i++
		}
		switch v := resp.(type) {
		case *string:
			*v = response.(string)
		case *bool:
			*v = response.(bool)
		case *int:
			*v = response.(int)
		}
		return nil
	}
}

// StubSurvey replaces the prompt function for the test.
func StubSurvey(t *testing.T, responses ...interface{}) {
	t.Helper()
	old := surveyAskOne
	surveyAskOne = MockSurveyAskOne(responses...)
	t.Cleanup(func() { surveyAskOne = old })
}

// StubFeatureStore makes commands use store instead of the HTTP client.
func StubFeatureStore(t *testing.T, store signals.FeatureStore) {
	t.Helper()
	old := newFeatureStore
	newFeatureStore = func(*config.Config) (signals.FeatureStore, error) { return store, nil }
	t.Cleanup(func() { newFeatureStore = old })
}

// StubCredentialStore makes commands use store instead of the OS keyring.
func StubCredentialStore(t *testing.T, store auth.CredentialStore) {
	t.Helper()
	old := newCredentialStore
	newCredentialStore = func() auth.CredentialStore { return store }
	t.Cleanup(func() { newCredentialStore = old })
}

// SetConfig sets a configuration key for the duration of the test.
func SetConfig(t *testing.T, key string, value interface{}) {
	t.Helper()
	prev := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, prev) })
}

// AssertCommandError checks that command fails with expected error
func AssertCommandError(t *testing.T, cmd *cobra.Command, args []string, expectedErr string) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), expectedErr)
}
