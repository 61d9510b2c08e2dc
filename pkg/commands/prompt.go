package commands

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"tableflip.dev/uniroutine/pkg/catalog"
	"tableflip.dev/uniroutine/pkg/selection"
	"tableflip.dev/uniroutine/pkg/store"
)

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// promptClass waits for the catalog and lets the user pick a class.
func promptClass(ctx context.Context, cmd *cobra.Command, src store.Source, opts selection.Options) (string, error) {
	v, err := selection.Load(ctx, src, "", opts)
	if err != nil {
		return "", err
	}
	return pickClass(cmd.InOrStdin(), cmd.OutOrStdout(), v.Entities)
}

func pickClass(in io.Reader, out io.Writer, entities []catalog.Entity) (string, error) {
	if len(entities) == 0 {
		return "", errors.New("no classes found")
	}
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "➜  {{ .Name | bold }} {{ .ID | faint }}",
		Inactive: "   {{ .Name }} {{ .ID | faint }}",
		Selected: "{{ .Name | bold }}",
	}

	searcher := func(input string, index int) bool {
		e := entities[index]
		name := strings.ReplaceAll(strings.ToLower(e.Name+e.ID), " ", "")
		input = strings.ReplaceAll(strings.ToLower(input), " ", "")
		return strings.Contains(name, input)
	}

	prompt := promptui.Select{
		HideHelp:  true,
		Label:     "Select Class",
		Items:     entities,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
		Stdin:     io.NopCloser(in),
		Stdout:    nopWriteCloser{out},
	}

	i, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return entities[i].ID, nil
}
