package scanning

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-extract/internal/ocr"
	"github.com/zombor/receipt-extract/internal/textlayer"
)

// mockRecognizer is a mock implementation of Recognizer
type mockRecognizer struct {
	text       string
	withOutput bool
	warnings   []string

	path    string
	kind    ocr.Kind
	written []byte
	calls   int
}

func (m *mockRecognizer) Recognize(ctx context.Context, path string, kind ocr.Kind) ocr.Recognition {
	m.calls++
	m.path = path
	m.kind = kind
	m.written, _ = os.ReadFile(path)

	rec := ocr.Recognition{
		Text:     textlayer.FromString(m.text),
		Method:   ocr.MethodPDFOCR,
		Warnings: m.warnings,
	}
	if m.withOutput {
		rec.OutputPath = filepath.Join(filepath.Dir(path), "document_ocr.pdf")
		Expect(os.WriteFile(rec.OutputPath, []byte("%PDF-ocr"), 0600)).To(Succeed())
	}
	return rec
}

// missingToolRunner reports every external tool as absent
type missingToolRunner struct{}

func (missingToolRunner) Run(ctx context.Context, cmd ocr.Command) ocr.Result {
	return ocr.Result{Outcome: ocr.OutcomeToolMissing, Err: errors.New("executable file not found in $PATH")}
}

// emptyReader has no text layer for any file
type emptyReader struct{}

func (emptyReader) ReadFile(path string) (textlayer.Text, error) {
	return textlayer.Text{}, errors.New("no text layer")
}

var _ = Describe("OCR", func() {
	var (
		workDir     string
		artifactDir string
		recognizer  *mockRecognizer
		scanner     *OCR
		doc         Document
		result      Result
	)

	BeforeEach(func() {
		workDir = filepath.Join(GinkgoT().TempDir(), "work")
		artifactDir = ""
		recognizer = &mockRecognizer{text: reweReceipt}
		doc = Document{Data: []byte("%PDF-1.7"), Kind: ocr.KindPDF}
	})

	JustBeforeEach(func() {
		var err error
		scanner, err = NewOCR(recognizer, OCRConfig{WorkDir: workDir, ArtifactDir: artifactDir}, nil)
		Expect(err).NotTo(HaveOccurred())
		result = scanner.Scan(context.Background(), doc)
	})

	AfterEach(func() {
		Expect(scanner.Close()).To(Succeed())
	})

	When("the document is recognized", func() {
		It("hands the document to the recognizer", func() {
			Expect(recognizer.kind).To(Equal(ocr.KindPDF))
			Expect(filepath.Ext(recognizer.path)).To(Equal(".pdf"))
			Expect(recognizer.written).To(Equal([]byte("%PDF-1.7")))
		})

		It("parses the recognized text", func() {
			Expect(*result.Brand).To(Equal("REWE"))
			Expect(result.Items).To(HaveLen(3))
			Expect(result.RawText).To(Equal(reweReceipt))
		})

		It("removes the run workspace", func() {
			Expect(filepath.Dir(recognizer.path)).NotTo(BeADirectory())
			entries, err := os.ReadDir(workDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	When("an artifact directory is configured", func() {
		BeforeEach(func() {
			artifactDir = filepath.Join(GinkgoT().TempDir(), "artifacts")
			recognizer.withOutput = true
		})

		It("keeps a copy of the OCR output", func() {
			Expect(result.OCRArtifact).To(HavePrefix(artifactDir))
			Expect(result.OCRArtifact).To(HaveSuffix("_ocr.pdf"))
			data, err := os.ReadFile(result.OCRArtifact)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("%PDF-ocr"))
		})

		It("still removes the run workspace", func() {
			Expect(filepath.Dir(recognizer.path)).NotTo(BeADirectory())
		})
	})

	When("the recognizer reports warnings", func() {
		BeforeEach(func() {
			recognizer.text = ""
			recognizer.warnings = []string{"ocrmypdf: tool-missing"}
		})

		It("passes them on with an empty result", func() {
			Expect(result.Warnings).To(ConsistOf("ocrmypdf: tool-missing"))
			Expect(result.Empty()).To(BeTrue())
		})
	})

	When("the document kind is unsupported", func() {
		BeforeEach(func() {
			doc = Document{Data: []byte("hello"), Kind: ocr.KindUnknown}
		})

		It("returns an empty result without recognizing", func() {
			Expect(recognizer.calls).To(BeZero())
			Expect(result.Empty()).To(BeTrue())
			Expect(result.Items).NotTo(BeNil())
			Expect(result.Warnings).To(HaveLen(1))
		})
	})
})

var _ = Describe("OCR with the real invoker", func() {
	DescribeTable("never fails when the OCR tools are missing",
		func(kind ocr.Kind) {
			invoker := ocr.NewInvokerWithDeps(ocr.DefaultConfig(), missingToolRunner{}, emptyReader{}, nil)
			scanner, err := NewOCR(invoker, OCRConfig{WorkDir: GinkgoT().TempDir()}, nil)
			Expect(err).NotTo(HaveOccurred())

			result := scanner.Scan(context.Background(), Document{Data: []byte("data"), Kind: kind})
			Expect(result.Empty()).To(BeTrue())
			Expect(result.Warnings).NotTo(BeEmpty())
		},
		Entry("pdf", ocr.KindPDF),
		Entry("jpeg", ocr.KindJPEG),
		Entry("png", ocr.KindPNG),
		Entry("heic", ocr.KindHEIC),
	)
})
