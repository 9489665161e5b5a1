package main

import (
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/imagebuilder/internal/config"
)

func TestCLIGrammar(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"serve", []string{"serve"}, "serve"},
		{"serve with addr", []string{"serve", "--addr", ":9000"}, "serve"},
		{"serve with config", []string{"-c", "custom.yaml", "serve"}, "serve"},
		{"build", []string{"build", "https://github.com/team/app.git"}, "build <repo-url>"},
		{"init", []string{"init"}, "init"},
		{"init force", []string{"init", "--force"}, "init"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cli := CLI
			parser, err := kong.New(&cli)
			require.NoError(t, err)

			kctx, err := parser.Parse(test.args)
			require.NoError(t, err)
			require.Equal(t, test.want, kctx.Command())
		})
	}
}

func TestCLIGrammarRejectsBuildWithoutURL(t *testing.T) {
	cli := CLI
	parser, err := kong.New(&cli)
	require.NoError(t, err)

	_, err = parser.Parse([]string{"build"})
	require.Error(t, err)
}

func TestRunInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, runInit(path, false))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultAddr, cfg.Server.Addr)

	// Refuses to clobber without force.
	require.Error(t, runInit(path, false))
	require.NoError(t, runInit(path, true))
}
