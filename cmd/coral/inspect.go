package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coral/internal/ast/rinhajson"
	"coral/internal/backend/llvm"
	"coral/internal/diagfmt"
	"coral/internal/driver"
	"coral/internal/mir"
)

func newTokenizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] <file.rinha>",
		Short: "Print the token stream of a source file",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenize,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	res, err := driver.Tokenize(args[0], maxDiagnostics(cmd))
	if err != nil {
		return err
	}
	switch format {
	case "pretty":
		err = diagfmt.FormatTokensPretty(cmd.OutOrStdout(), res.Tokens, res.FileSet)
	case "json":
		err = diagfmt.FormatTokensJSON(cmd.OutOrStdout(), res.Tokens)
	default:
		return fmt.Errorf("unknown format %q (expected pretty|json)", format)
	}
	if err != nil {
		return err
	}
	if perr := printDiagnostics(cmd, res.Bag, res.FileSet, "pretty"); perr != nil {
		return perr
	}
	if res.Bag.HasErrors() {
		return &exitError{code: 1}
	}
	return nil
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [flags] <file>",
		Short: "Print the syntax tree of a program",
		Long: `Parse a program and print its syntax tree, either as an indented tree or
as the JSON AST interchange format accepted back by every other command.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}
	cmd.Flags().String("format", "tree", "output format (tree|json)")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "tree" && format != "json" {
		return fmt.Errorf("unknown format %q (expected tree|json)", format)
	}
	res, err := driver.Compile(cmd.Context(), args[0], &driver.Options{
		Stage:          driver.StageSyntax,
		Format:         formatOf(args[0]),
		MaxDiagnostics: maxDiagnostics(cmd),
	})
	if err != nil {
		return err
	}
	if perr := printDiagnostics(cmd, res.Bag, res.FileSet, "pretty"); perr != nil {
		return perr
	}
	if !res.OK() {
		return &exitError{code: 1}
	}
	out := cmd.OutOrStdout()
	if format == "json" {
		return rinhajson.Dump(out, res.Builder, res.ASTFile, res.FileSet)
	}
	file := res.Builder.Files.Get(res.ASTFile)
	return res.Builder.Exprs.Dump(out, file.Root)
}

func newIRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ir [flags] <file>",
		Short: "Print the lowered MIR or LLVM IR of a program",
		Args:  cobra.ExactArgs(1),
		RunE:  runIR,
	}
	cmd.Flags().String("format", "mir", "output format (mir|llvm)")
	cmd.Flags().Bool("spans", false, "annotate MIR instructions with source spans")
	cmd.Flags().Bool("leak-check", false, "emit the exit-time leak check (llvm)")
	cmd.Flags().String("triple", "", "LLVM target triple (llvm)")
	return cmd
}

func runIR(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	spans, _ := cmd.Flags().GetBool("spans")
	leakCheck, _ := cmd.Flags().GetBool("leak-check")
	triple, _ := cmd.Flags().GetString("triple")
	if format != "mir" && format != "llvm" {
		return fmt.Errorf("unknown format %q (expected mir|llvm)", format)
	}
	res, err := driver.Compile(cmd.Context(), args[0], &driver.Options{
		Format:         formatOf(args[0]),
		MaxDiagnostics: maxDiagnostics(cmd),
		Cache:          openCache(cmd),
	})
	if err != nil {
		return err
	}
	if perr := printDiagnostics(cmd, res.Bag, res.FileSet, "pretty"); perr != nil {
		return perr
	}
	if !res.OK() {
		return &exitError{code: 1}
	}
	out := cmd.OutOrStdout()
	if format == "mir" {
		return mir.DumpModule(out, res.MIR, mir.DumpOptions{Spans: spans})
	}
	text, err := llvm.EmitModule(res.MIR, llvm.Options{Triple: triple, LeakCheck: leakCheck})
	if err != nil {
		return fmt.Errorf("LLVM emit failed: %w", err)
	}
	_, err = fmt.Fprint(out, text)
	return err
}
