package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
	"payfamily/internal/app/client/categorize"
	"payfamily/internal/domain/document"
)

const maxImageSize = 10 << 20

var (
	scanFields fields
	scanYes    bool
)

var ScanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Read a receipt image and add it",
	Long: `scan sends the image to the categorization service and pre-fills the
document from its answer. Flags win over the suggestion. When the service
is unavailable the document is entered by hand.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := readImage(args[0])
		if err != nil {
			return err
		}

		app, err := unlocked(cmd)
		if err != nil {
			return err
		}
		p := prompt.New()

		d := app.NewDocument(document.TypeReceipt)
		if err := scanFields.apply(cmd, d, true); err != nil {
			return err
		}
		if abs, err := filepath.Abs(args[0]); err == nil {
			d.ImageSrc = abs
		}

		suggestion, err := app.Categorizer.AnalyzeImage(cmd.Context(), image, "")
		switch {
		case errors.Is(err, categorize.ErrUnavailable):
			p.Warn("automatic reading unavailable, enter the details by hand")
		case err != nil:
			return err
		default:
			p.Header("Suggested: %s, %s, %s (confidence %.0f%%)",
				suggestion.VendorName, suggestion.Amount.StringFixed(2), suggestion.Category, suggestion.Confidence*100)
			suggestion.Apply(d)
		}

		if err := askMissing(p, d); err != nil {
			return err
		}
		guessCategory(cmd, app, d)

		if err := printDocument(p.Out(), d); err != nil {
			return err
		}
		if !scanYes && !p.Confirm("Save this document?") {
			p.Warn("discarded")
			return nil
		}

		id, err := app.Documents.Add(cmd.Context(), d)
		if err != nil {
			return fmt.Errorf("add document: %w", err)
		}

		p.Success("%s added: %s", d.Type.DisplayName(), id)
		return nil
	},
}

func readImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image is larger than %d MB", maxImageSize>>20)
	}
	return data, nil
}

func init() {
	scanFields.bind(ScanCmd)
	ScanCmd.Flags().BoolVarP(&scanYes, "yes", "y", false, "save without asking")
}
