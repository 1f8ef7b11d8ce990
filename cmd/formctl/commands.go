package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stemsi/formbuilder/internal/forest"
	"github.com/stemsi/formbuilder/internal/model"
	"github.com/stemsi/formbuilder/internal/render"
	"github.com/stemsi/formbuilder/internal/service"
)

// app carries what every command needs. open is swapped out in tests.
type app struct {
	out  io.Writer
	open func(ctx context.Context) (*service.QuestionService, func(), error)
}

// withService opens the store, runs fn and closes the store again.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.QuestionService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := a.open(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeFn()
	return fn(ctx, svc)
}

func (a *app) print(f model.Forest) {
	fmt.Fprint(a.out, render.Terminal(f))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid question id %q", s)
	}
	return id, nil
}

// explain turns tree errors into messages for the terminal.
func explain(err error, id int64) error {
	switch {
	case errors.Is(err, forest.ErrNotFound):
		return fmt.Errorf("no question with id %d", id)
	case errors.Is(err, forest.ErrNotTrueFalse):
		return fmt.Errorf("question %d is not True/False; only True/False questions take children", id)
	default:
		return err
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "formctl",
		Short:         "Edit the stored question form",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(a.out)

	root.AddCommand(
		newShowCmd(a),
		newAddCmd(a),
		newAddChildCmd(a),
		newSetTextCmd(a),
		newSetKindCmd(a),
		newDeleteCmd(a),
		newMoveCmd(a),
		newSubmitCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

func newShowCmd(a *app) *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the numbered question tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(_ context.Context, svc *service.QuestionService) error {
				if summary {
					fmt.Fprint(a.out, render.Summary(svc.Questions()))
					return nil
				}
				a.print(svc.Questions())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "plain summary lines instead of the styled tree")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var kind, text string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a top-level question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := model.ParseQuestionKind(kind)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.QuestionService) error {
				q, f := svc.AddQuestion(ctx)
				if text != "" || k != q.Kind {
					if f, err = svc.UpdateQuestion(ctx, q.ID, text, &k); err != nil {
						return err
					}
				}
				fmt.Fprintf(a.out, "added question %d\n", q.ID)
				a.print(f)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "question text")
	cmd.Flags().StringVar(&kind, "type", string(model.QuestionKindShortAnswer), "ShortAnswer or TrueFalse")
	return cmd
}

func newAddChildCmd(a *app) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "add-child <parent-id>",
		Short: "Append a child under a True/False question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.QuestionService) error {
				q, f, err := svc.AddChildQuestion(ctx, parentID)
				if err != nil {
					return explain(err, parentID)
				}
				if text != "" {
					if f, err = svc.SetText(ctx, q.ID, text); err != nil {
						return err
					}
				}
				fmt.Fprintf(a.out, "added question %d under %d\n", q.ID, parentID)
				a.print(f)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "question text")
	return cmd
}

func newSetTextCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-text <id> <text>...",
		Short: "Replace the text of a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			return a.withService(cmd, func(ctx context.Context, svc *service.QuestionService) error {
				f, err := svc.SetText(ctx, id, text)
				if err != nil {
					return explain(err, id)
				}
				a.print(f)
				return nil
			})
		},
	}
}

func newSetKindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-kind <id> <ShortAnswer|TrueFalse>",
		Short: "Change the type of a question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			kind, err := model.ParseQuestionKind(args[1])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.QuestionService) error {
				f, err := svc.SetKind(ctx, id, kind)
				if err != nil {
					return explain(err, id)
				}
				a.print(f)
				return nil
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a question and all of its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.QuestionService) error {
				f, err := svc.DeleteQuestion(ctx, id)
				if err != nil {
					return explain(err, id)
				}
				a.print(f)
				return nil
			})
		},
	}
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a top-level question; positions start at 1",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err1 := strconv.Atoi(args[0])
			to, err2 := strconv.Atoi(args[1])
			if err := errors.Join(err1, err2); err != nil {
				return fmt.Errorf("positions must be numbers: %w", err)
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.QuestionService) error {
				f, err := svc.MoveQuestion(ctx, from-1, to-1)
				if errors.Is(err, forest.ErrIndexOutOfRange) {
					return fmt.Errorf("positions must be between 1 and %d", len(svc.Questions()))
				}
				if err != nil {
					return err
				}
				a.print(f)
				return nil
			})
		},
	}
}

func newSubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Freeze the form and print its summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *service.QuestionService) error {
				sub := svc.Submit(ctx)
				fmt.Fprintf(a.out, "Submitted Questions (%s)\n", sub.ID)
				fmt.Fprint(a.out, render.Summary(sub.Questions))
				return nil
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the form as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(_ context.Context, svc *service.QuestionService) error {
				b, err := forest.Encode(svc.Questions())
				if err != nil {
					return err
				}
				if file == "" || file == "-" {
					_, err = fmt.Fprintln(a.out, string(b))
					return err
				}
				return os.WriteFile(file, append(b, '\n'), 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the form with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if args[0] == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			f, err := forest.Decode(b)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.QuestionService) error {
				out, err := svc.Replace(ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "imported %d questions\n", forest.Count(out))
				a.print(out)
				return nil
			})
		},
	}
}
