package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"documind-bot/api/internal/llm"
	"documind-bot/api/internal/logger"
	"documind-bot/api/internal/session"
	"documind-bot/api/internal/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Recognize a local image and optionally run an action on the text",
	Long: `Runs the configured OCR engine on a local file without Telegram. With --action
or --caption the recognized text is also sent to the generation provider.
Useful for checking credentials and prompt profiles.`,
	Example: `  documind scan receipt.jpg
  documind scan letter.png --action translate_en
  documind scan form.jpg --caption "what is the due date?"`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("action", "a", "", "menu action to run (summarize, translate_en, translate_ua, keywords, ...)")
	scanCmd.Flags().StringP("caption", "c", "", "free-form request, as if sent as a photo caption")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	action, _ := cmd.Flags().GetString("action")
	caption, _ := cmd.Flags().GetString("caption")

	a := &app{log: logger.WithComponent("scan")}
	defer a.Close()

	provider, err := a.secretProvider(ctx, cfg)
	if err != nil {
		return err
	}
	if err := cfg.ResolveEngineSecrets(ctx, provider); err != nil {
		return err
	}
	engines, err := a.engines(ctx, cfg)
	if err != nil {
		return err
	}

	img, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if mime := util.SniffMimeHTTP(img); !strings.HasPrefix(mime, "image/") {
		return fmt.Errorf("%s: not an image (%s)", args[0], mime)
	}

	start := time.Now()
	text, ok := engines.ocr.ExtractText(ctx, img)
	if !ok {
		return fmt.Errorf("%s: no text recognized", args[0])
	}
	a.log.Info().Int("chars", util.TelegramLen(text)).Dur("took", time.Since(start)).Msg("text recognized")

	out := cmd.OutOrStdout()
	switch act := session.ParseAction(action); {
	case strings.TrimSpace(caption) != "":
		p := llm.CaptionProfile(strings.TrimSpace(caption))
		fmt.Fprintf(out, "%s\n\n%s\n", p.Title, engines.llm.Generate(ctx, text, p))
	case act.Generates():
		if !engines.profiles.Has(string(act)) {
			a.log.Warn().Str("action", string(act)).Msg("no profile for action, using generic one")
		}
		p := engines.profiles.Lookup(string(act))
		fmt.Fprintf(out, "%s\n\n%s\n", p.Title, engines.llm.Generate(ctx, text, p))
	default:
		fmt.Fprintln(out, text)
	}
	return nil
}
