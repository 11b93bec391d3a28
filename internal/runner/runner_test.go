package runner_test

import (
	"bytes"
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/cesarferreira/robin/internal/command"
	"github.com/cesarferreira/robin/internal/config"
	"github.com/cesarferreira/robin/internal/executor"
	"github.com/cesarferreira/robin/internal/params"
	"github.com/cesarferreira/robin/internal/runner"
)

func loadTable(content string) command.Table {
	fsys := afero.NewMemMapFs()
	Expect(afero.WriteFile(fsys, "/project/"+config.FileName, []byte(content), 0644)).To(Succeed())
	cfg, err := config.NewStore(fsys, "/project").Load()
	Expect(err).NotTo(HaveOccurred())
	return cfg.Scripts
}

var _ = Describe("Runner", func() {
	var (
		ctx      context.Context
		exec     *fakeExecutor
		prompter *scriptedPrompter
		out      *bytes.Buffer
		r        *runner.Runner
	)

	BeforeEach(func() {
		ctx = context.Background()
		exec = &fakeExecutor{codes: map[string]int{}}
		prompter = &scriptedPrompter{answers: map[string]string{}}
		out = &bytes.Buffer{}
		r = &runner.Runner{Executor: exec, Prompter: prompter, Out: out}
	})

	Describe("direct invocation", func() {
		It("runs a command without placeholders as written", func() {
			table := loadTable(`{"scripts": {"clean": "rm -rf node_modules"}}`)

			Expect(r.Run(ctx, table, "clean", nil, false)).To(Succeed())
			Expect(exec.ran).To(Equal([]string{"rm -rf node_modules"}))
			Expect(out.String()).To(ContainSubstring("==> Running: clean"))
		})

		It("substitutes parameters from flags", func() {
			table := loadTable(`{"scripts": {"greet": "echo {{who}}"}}`)

			Expect(r.Run(ctx, table, "greet", params.Flags{"who": "world"}, false)).To(Succeed())
			Expect(exec.ran).To(Equal([]string{"echo world"}))
		})

		It("replaces every occurrence of a placeholder", func() {
			table := loadTable(`{"scripts": {"tag": "git tag {{v}} && git push origin {{v}}"}}`)

			Expect(r.Run(ctx, table, "tag", params.Flags{"v": "1.2.0"}, false)).To(Succeed())
			Expect(exec.ran).To(Equal([]string{"git tag 1.2.0 && git push origin 1.2.0"}))
		})

		It("runs the first of duplicated names", func() {
			table := loadTable(`{"scripts": {"build": "make", "test": "make test", "build": "ninja"}}`)

			Expect(r.Run(ctx, table, "build", nil, false)).To(Succeed())
			Expect(exec.ran).To(Equal([]string{"make"}))
		})

		It("uses placeholder defaults", func() {
			table := loadTable(`{"scripts": {"deploy": "fastlane deploy --lane {{lane=beta}}"}}`)

			Expect(r.Run(ctx, table, "deploy", nil, false)).To(Succeed())
			Expect(exec.ran).To(Equal([]string{"fastlane deploy --lane beta"}))
		})

		It("quotes values when asked to", func() {
			table := loadTable(`{"scripts": {"say": "echo {{msg}}"}}`)
			r.QuoteParams = true

			Expect(r.Run(ctx, table, "say", params.Flags{"msg": "hello; rm -rf /"}, false)).To(Succeed())
			Expect(exec.ran).To(Equal([]string{"echo 'hello; rm -rf /'"}))
		})
	})

	Describe("failures", func() {
		It("reports an unknown command and runs nothing", func() {
			table := loadTable(`{"scripts": {"build": "make"}}`)

			err := r.Run(ctx, table, "deploy", nil, false)
			var notFound *command.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.Name).To(Equal("deploy"))
			Expect(exec.ran).To(BeEmpty())
			Expect(out.String()).To(BeEmpty())
		})

		It("matches names case-sensitively", func() {
			table := loadTable(`{"scripts": {"Build": "make"}}`)

			err := r.Run(ctx, table, "build", nil, false)
			Expect(err).To(BeAssignableToTypeOf(&command.NotFoundError{}))
			Expect(exec.ran).To(BeEmpty())
		})

		It("fails on missing parameters without prompting", func() {
			table := loadTable(`{"scripts": {"greet": "echo {{name}}"}}`)

			err := r.Run(ctx, table, "greet", params.Flags{"other": "x"}, false)
			var missing *command.MissingParametersError
			Expect(errors.As(err, &missing)).To(BeTrue())
			Expect(missing.Names).To(Equal([]string{"name"}))
			Expect(exec.ran).To(BeEmpty())
			Expect(prompter.asked).To(BeEmpty())
		})

		It("treats empty flag values as missing", func() {
			table := loadTable(`{"scripts": {"greet": "echo {{name}}"}}`)

			err := r.Run(ctx, table, "greet", params.Flags{"name": ""}, false)
			Expect(err).To(BeAssignableToTypeOf(&command.MissingParametersError{}))
		})

		It("rejects values outside the choices", func() {
			table := loadTable(`{"scripts": {"release": "ship {{channel=[beta,alpha]}}"}}`)

			err := r.Run(ctx, table, "release", params.Flags{"channel": "nightly"}, false)
			Expect(err).To(BeAssignableToTypeOf(&command.InvalidParameterError{}))
			Expect(exec.ran).To(BeEmpty())
		})

		It("passes the child's exit code through", func() {
			table := loadTable(`{"scripts": {"test": "go test ./..."}}`)
			exec.codes["go test ./..."] = 2

			err := r.Run(ctx, table, "test", nil, false)
			var exitErr *executor.ExitError
			Expect(errors.As(err, &exitErr)).To(BeTrue())
			Expect(exitErr.Code).To(Equal(2))
		})

		It("returns spawn failures", func() {
			table := loadTable(`{"scripts": {"test": "go test ./..."}}`)
			exec.err = &executor.SpawnError{Shell: "sh", Err: errors.New("not found")}

			err := r.Run(ctx, table, "test", nil, false)
			Expect(err).To(BeAssignableToTypeOf(&executor.SpawnError{}))
		})
	})

	Describe("interactive parameters", func() {
		It("prompts for missing parameters in first-occurrence order", func() {
			table := loadTable(`{"scripts": {"mv": "mv {{src}} {{dst}} && ls {{src}}"}}`)
			prompter.answers = map[string]string{"src": "a.txt", "dst": "b.txt"}

			Expect(r.Run(ctx, table, "mv", nil, true)).To(Succeed())
			Expect(prompter.asked).To(Equal([]string{"src", "dst"}))
			Expect(exec.ran).To(Equal([]string{"mv a.txt b.txt && ls a.txt"}))
		})

		It("only prompts for what the flags leave out", func() {
			table := loadTable(`{"scripts": {"mv": "mv {{src}} {{dst}}"}}`)
			prompter.answers = map[string]string{"dst": "b.txt"}

			Expect(r.Run(ctx, table, "mv", params.Flags{"src": "a.txt"}, true)).To(Succeed())
			Expect(prompter.asked).To(Equal([]string{"dst"}))
		})

		It("accepts an empty answer", func() {
			table := loadTable(`{"scripts": {"say": "echo {{msg}}."}}`)
			prompter.answers = map[string]string{"msg": ""}

			Expect(r.Run(ctx, table, "say", nil, true)).To(Succeed())
			Expect(exec.ran).To(Equal([]string{"echo ."}))
		})
	})

	Describe("sequences", func() {
		It("runs every step in order", func() {
			table := loadTable(`{"scripts": {"ci": ["go vet ./...", "go test {{pkg=./...}}"]}}`)

			Expect(r.Run(ctx, table, "ci", nil, false)).To(Succeed())
			Expect(exec.ran).To(Equal([]string{"go vet ./...", "go test ./..."}))
		})

		It("stops at the first failing step", func() {
			table := loadTable(`{"scripts": {"ci": ["lint", "test", "build"]}}`)
			exec.codes["test"] = 1

			err := r.Run(ctx, table, "ci", nil, false)
			Expect(err).To(MatchError(&executor.ExitError{Command: "test", Code: 1}))
			Expect(exec.ran).To(Equal([]string{"lint", "test"}))
		})

		It("resolves all steps before running any", func() {
			table := loadTable(`{"scripts": {"ship": ["build", "deploy {{env}}"]}}`)

			err := r.Run(ctx, table, "ship", nil, false)
			Expect(err).To(BeAssignableToTypeOf(&command.MissingParametersError{}))
			Expect(exec.ran).To(BeEmpty())
		})
	})

	Describe("Resolve", func() {
		It("does not expand placeholders inside bound values", func() {
			entry := command.NewEntry("x", "{{a}} {{b}} {{a}}")

			lines, err := r.Resolve(ctx, entry, params.Flags{"a": "{{b}}", "b": "2"}, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{"{{b}} 2 {{b}}"}))
		})
	})

	Describe("template tokens", func() {
		It("rejects tokens that look like misspelled placeholders", func() {
			table := loadTable(`{"scripts": {"greet": "echo {{ who }} {{my-name}}"}}`)

			err := r.Run(ctx, table, "greet", params.Flags{"who": "world"}, false)
			var malformed *command.MalformedPlaceholderError
			Expect(errors.As(err, &malformed)).To(BeTrue())
			Expect(malformed.Token).To(Equal("{{ who }}"))
			Expect(exec.ran).To(BeEmpty())
		})

		It("leaves Go-template format strings to the shell", func() {
			table := loadTable(`{"scripts": {"ps": "docker ps --format '{{.Names}} {{json .Ports}}' --filter name={{app}}"}}`)

			Expect(r.Run(ctx, table, "ps", params.Flags{"app": "web"}, false)).To(Succeed())
			Expect(exec.ran).To(Equal([]string{"docker ps --format '{{.Names}} {{json .Ports}}' --filter name=web"}))
		})
	})

	Describe("interrupts", func() {
		It("does not start the next step once the context is canceled", func() {
			table := loadTable(`{"scripts": {"dev": ["serve", "cleanup"]}}`)
			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			canceling := &cancelingExecutor{cancel: cancel}
			r.Executor = canceling

			err := r.Run(runCtx, table, "dev", nil, false)
			Expect(err).To(MatchError(context.Canceled))
			Expect(canceling.ran).To(Equal([]string{"serve"}))
		})
	})

	Describe("notifications", func() {
		var notifier *recordingNotifier

		BeforeEach(func() {
			notifier = &recordingNotifier{}
			r.Notifier = notifier
		})

		It("reports a finished command by its first word", func() {
			table := loadTable(`{"scripts": {"build": "make release"}}`)

			Expect(r.Run(ctx, table, "build", nil, false)).To(Succeed())
			Expect(notifier.messages).To(HaveLen(1))
			Expect(notifier.messages[0]).To(MatchRegexp(`^Command 'make' completed in \d+\.\ds$`))
			Expect(notifier.success).To(Equal([]bool{true}))
		})

		It("reports a failed command", func() {
			table := loadTable(`{"scripts": {"test": "go test ./..."}}`)
			exec.codes["go test ./..."] = 1

			Expect(r.Run(ctx, table, "test", nil, false)).NotTo(Succeed())
			Expect(notifier.messages).To(Equal([]string{"Command 'go' failed"}))
			Expect(notifier.success).To(Equal([]bool{false}))
		})

		It("reports sequences as a whole", func() {
			table := loadTable(`{"scripts": {"ci": ["lint", "test"], "broken": ["lint", "fail"]}}`)
			exec.codes["fail"] = 2

			Expect(r.Run(ctx, table, "ci", nil, false)).To(Succeed())
			Expect(r.Run(ctx, table, "broken", nil, false)).NotTo(Succeed())
			Expect(notifier.messages).To(HaveLen(2))
			Expect(notifier.messages[0]).To(HavePrefix("Command sequence completed in "))
			Expect(notifier.messages[1]).To(Equal("Command sequence failed"))
		})

		It("stays quiet when nothing ran", func() {
			table := loadTable(`{"scripts": {"greet": "echo {{who}}"}}`)

			Expect(r.Run(ctx, table, "greet", nil, false)).NotTo(Succeed())
			Expect(notifier.messages).To(BeEmpty())
		})
	})

	It("prints instead of running on a dry run", func() {
		table := loadTable(`{"scripts": {"greet": "echo {{who}}"}}`)
		var printed bytes.Buffer
		r.Executor = &executor.DryRun{Out: &printed}

		Expect(r.Run(ctx, table, "greet", params.Flags{"who": "world"}, false)).To(Succeed())
		Expect(printed.String()).To(Equal("echo world\n"))
	})
})
