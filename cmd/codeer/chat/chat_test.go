package chatcmder_test

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"github.com/papercomputeco/codeer/api"
	codeercmder "github.com/papercomputeco/codeer/cmd/codeer"
	chatcmder "github.com/papercomputeco/codeer/cmd/codeer/chat"
	"github.com/papercomputeco/codeer/pkg/codeer"
	"github.com/papercomputeco/codeer/pkg/logger"
)

const testKey = "ck-chat"

// startServer runs a mock API server on a random port and returns its root.
func startServer(cfg api.Config) (*api.Server, string) {
	server := api.NewServer(cfg, logger.Nop())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())

	go func() { _ = server.RunWithListener(listener) }()
	DeferCleanup(server.Shutdown)

	return server, "http://" + listener.Addr().String()
}

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has --api-root flag with default value", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("api-root")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("r"))
		Expect(flag.DefValue).To(Equal("http://localhost:8000"))
	})

	It("has --agent flag", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("agent")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("a"))
	})

	It("registers the session and output flags", func() {
		cmd := chatcmder.NewChatCmd()
		for _, name := range []string{"api-key", "timeout", "markdown", "resume", "no-color", "dump-stream", "log-file"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), "missing flag %s", name)
		}
	})

	It("rejects positional arguments", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Args(cmd, []string{"hello"})).To(HaveOccurred())
	})
})

var _ = Describe("Chat session", func() {
	var (
		server    *api.Server
		root      string
		configDir string
		out       *gbytes.Buffer
	)

	BeforeEach(func() {
		server, root = startServer(api.Config{APIKey: testKey})
		configDir = GinkgoT().TempDir()
		out = gbytes.NewBuffer()
	})

	text := func() string { return string(out.Contents()) }

	runChat := func(ctx context.Context, input io.Reader, extra ...string) error {
		cmd := codeercmder.NewCodeerCmd()
		args := append([]string{
			"chat",
			"--api-root", root,
			"--api-key", testKey,
			"--config-dir", configDir,
			"--no-color",
		}, extra...)
		cmd.SetArgs(args)
		cmd.SetIn(input)
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		return cmd.ExecuteContext(ctx)
	}

	chat := func(lines ...string) error {
		return runChat(context.Background(), strings.NewReader(strings.Join(lines, "\n")+"\n"))
	}

	It("prints the welcome banner and says goodbye at end of input", func() {
		Expect(chat()).To(Succeed())
		Expect(text()).To(ContainSubstring("Codeer Chat"))
		Expect(text()).To(ContainSubstring(root))
		Expect(text()).To(ContainSubstring("Goodbye!"))
	})

	It("creates a chat on the first message and streams the reply", func() {
		Expect(chat("hello there", "/quit")).To(Succeed())

		Expect(text()).To(ContainSubstring("New chat #1"))
		Expect(text()).To(ContainSubstring("You said: hello there"))
		Expect(server.Questions(1)).To(Equal([]string{"hello there"}))
	})

	It("posts follow-up messages to the same chat", func() {
		Expect(chat("first", "second", "/exit")).To(Succeed())

		Expect(server.Questions(1)).To(Equal([]string{"first", "second"}))
		Expect(server.Questions(2)).To(BeNil())
	})

	It("ignores blank lines", func() {
		Expect(chat("", "   ", "only one")).To(Succeed())
		Expect(server.Questions(1)).To(Equal([]string{"only one"}))
	})

	It("starts a new chat after /new", func() {
		Expect(chat("first", "/new", "second")).To(Succeed())

		Expect(text()).To(ContainSubstring("Starting a new chat session"))
		Expect(server.Questions(1)).To(Equal([]string{"first"}))
		Expect(server.Questions(2)).To(Equal([]string{"second"}))
	})

	It("stops reading after /quit", func() {
		Expect(chat("/quit", "never sent")).To(Succeed())
		Expect(server.Questions(1)).To(BeNil())
	})

	It("reports unknown commands", func() {
		Expect(chat("/bogus")).To(Succeed())
		Expect(text()).To(ContainSubstring("Unknown command /bogus"))
	})

	It("lists agents and marks the selected one", func() {
		Expect(chat("/agent 2", "/agents")).To(Succeed())

		Expect(text()).To(ContainSubstring("Using agent 2"))
		Expect(text()).To(ContainSubstring("General"))
		Expect(text()).To(ContainSubstring("Support"))
	})

	It("addresses questions to the selected agent", func() {
		Expect(chat("/agent 2", "help me")).To(Succeed())
		Expect(text()).To(ContainSubstring("[Support] You said: help me"))
	})

	It("clears the agent with a bare /agent", func() {
		Expect(chat("/agent 2", "/agent", "hi")).To(Succeed())

		Expect(text()).To(ContainSubstring("Agent cleared"))
		Expect(text()).NotTo(ContainSubstring("[Support]"))
	})

	It("rejects a malformed agent id", func() {
		Expect(chat("/agent abc")).To(Succeed())
		Expect(text()).To(ContainSubstring(`invalid agent id "abc"`))
	})

	It("uses the --agent flag", func() {
		err := runChat(context.Background(), strings.NewReader("hi\n"), "--agent", "1")
		Expect(err).NotTo(HaveOccurred())
		Expect(text()).To(ContainSubstring("[General] You said: hi"))
	})

	It("fails on a malformed --agent flag", func() {
		err := runChat(context.Background(), strings.NewReader(""), "--agent", "abc")
		Expect(err).To(MatchError(ContainSubstring("invalid agent id")))
	})

	It("shows the API error and a checklist for an unknown agent", func() {
		Expect(chat("/agent 99", "hi")).To(Succeed())

		Expect(text()).To(ContainSubstring("API error: Agent not found (404)"))
		Expect(text()).To(ContainSubstring("Please check:"))
		Expect(text()).To(ContainSubstring("API key is valid"))
		Expect(text()).To(ContainSubstring("Backend server is running"))
		Expect(text()).To(ContainSubstring("CORS is properly configured"))
	})

	It("reports a rejected API key", func() {
		err := runChat(context.Background(), strings.NewReader("hi\n"), "--api-key", "wrong")
		Expect(err).NotTo(HaveOccurred())
		Expect(text()).To(ContainSubstring("Invalid API key (401)"))
		Expect(server.Questions(1)).To(BeNil())
	})

	It("keeps the chat going after a stream error", func() {
		server, root = startServer(api.Config{
			APIKey: testKey,
			Responder: func(q string, _ *codeer.Agent) (string, error) {
				if q == "fail" {
					return "", errors.New("model overloaded")
				}
				return "ok", nil
			},
		})

		Expect(chat("fail", "again")).To(Succeed())

		Expect(text()).To(ContainSubstring("model overloaded"))
		Expect(text()).To(ContainSubstring("Please check:"))
		Expect(server.Questions(1)).To(Equal([]string{"fail", "again"}))
	})

	It("renders the reply as markdown when requested", func() {
		err := runChat(context.Background(), strings.NewReader("**bold**\n"), "--markdown")
		Expect(err).NotTo(HaveOccurred())
		Expect(text()).To(ContainSubstring("You said:"))
		Expect(text()).To(ContainSubstring("bold"))
	})

	It("says goodbye when interrupted", func() {
		pr, pw := io.Pipe()
		DeferCleanup(pw.Close)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- runChat(ctx, pr) }()

		Eventually(out).Should(gbytes.Say("Codeer Chat"))
		cancel()

		Eventually(errCh, 5*time.Second).Should(Receive(BeNil()))
		Expect(text()).To(ContainSubstring("Goodbye!"))
	})

	Describe("--resume", func() {
		It("continues the saved chat", func() {
			Expect(chat("first")).To(Succeed())

			out = gbytes.NewBuffer()
			err := runChat(context.Background(), strings.NewReader("second\n"), "--resume")
			Expect(err).NotTo(HaveOccurred())

			Expect(text()).To(ContainSubstring("Resuming chat #1"))
			Expect(server.Questions(1)).To(Equal([]string{"first", "second"}))
		})

		It("restores the saved agent", func() {
			Expect(chat("/agent 2", "first")).To(Succeed())

			out = gbytes.NewBuffer()
			err := runChat(context.Background(), strings.NewReader("second\n"), "--resume")
			Expect(err).NotTo(HaveOccurred())
			Expect(text()).To(ContainSubstring("[Support] You said: second"))
		})

		It("starts fresh without a saved session", func() {
			err := runChat(context.Background(), strings.NewReader(""), "--resume")
			Expect(err).NotTo(HaveOccurred())
			Expect(text()).To(ContainSubstring("No saved session"))
		})

		It("starts fresh after /new cleared the session", func() {
			Expect(chat("first", "/new")).To(Succeed())

			out = gbytes.NewBuffer()
			err := runChat(context.Background(), strings.NewReader(""), "--resume")
			Expect(err).NotTo(HaveOccurred())
			Expect(text()).To(ContainSubstring("No saved session"))
		})

		It("ignores a session saved for another API root", func() {
			Expect(chat("first")).To(Succeed())

			_, otherRoot := startServer(api.Config{APIKey: testKey})
			root = otherRoot

			out = gbytes.NewBuffer()
			err := runChat(context.Background(), strings.NewReader(""), "--resume")
			Expect(err).NotTo(HaveOccurred())
			Expect(text()).To(ContainSubstring("belongs to"))
		})
	})
})
