package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-extract/internal/scanning"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newReceipt := func(id, hash string) *Receipt {
		return &Receipt{
			ID:           id,
			DocumentHash: hash,
			Filename:     hash + ".pdf",
			ContentType:  "application/pdf",
			Result:       sampleResult(sampleReceipt),
			CreatedAt:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			UpdatedAt:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		}
	}

	Describe("SaveReceipt", func() {
		var (
			receipt *Receipt
			err     error
		)

		BeforeEach(func() {
			receipt = newReceipt("test-id", "hash-1")
		})

		JustBeforeEach(func() {
			err = db.SaveReceipt(receipt)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should persist the receipt", func() {
				retrieved, getErr := db.GetReceipt("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(retrieved.ID).To(Equal("test-id"))
				Expect(retrieved.Filename).To(Equal("hash-1.pdf"))
			})

			It("should keep the extracted values", func() {
				retrieved, getErr := db.GetReceipt("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(*retrieved.Brand).To(Equal("REWE"))
				Expect(retrieved.Date.String()).To(Equal("2024-01-15"))
				Expect(retrieved.Total.String()).To(Equal("3.56"))
				Expect(retrieved.PaymentMethod).To(BeNil())
				Expect(retrieved.Items).To(HaveLen(2))
				Expect(retrieved.Items[0].Quantity.String()).To(Equal("1.2"))
				Expect(retrieved.Items[0].UnitPrice.String()).To(Equal("0.89"))
				Expect(retrieved.RawText).To(Equal(sampleReceipt))
			})

			It("should index the document hash", func() {
				found, findErr := db.FindByHash("hash-1")
				Expect(findErr).NotTo(HaveOccurred())
				Expect(found.ID).To(Equal("test-id"))
			})
		})
	})

	Describe("GetReceipt", func() {
		When("receipt does not exist", func() {
			It("should return ErrNotFound", func() {
				_, err := db.GetReceipt("nonexistent")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("FindByHash", func() {
		When("no receipt was created from the document", func() {
			It("should return ErrNotFound", func() {
				_, err := db.FindByHash("unknown")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("ListReceipts", func() {
		When("there are no receipts", func() {
			It("should return an empty list", func() {
				receipts, err := db.ListReceipts()
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(BeEmpty())
			})
		})

		When("there are receipts", func() {
			BeforeEach(func() {
				Expect(db.SaveReceipt(newReceipt("id-1", "hash-1"))).To(Succeed())
				Expect(db.SaveReceipt(newReceipt("id-2", "hash-2"))).To(Succeed())
			})

			It("should return all receipts", func() {
				receipts, err := db.ListReceipts()
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteReceipt", func() {
		BeforeEach(func() {
			Expect(db.SaveReceipt(newReceipt("test-id", "hash-1"))).To(Succeed())
		})

		It("should remove the receipt and its hash", func() {
			Expect(db.DeleteReceipt("test-id")).To(Succeed())

			_, err := db.GetReceipt("test-id")
			Expect(err).To(MatchError(ErrNotFound))
			_, err = db.FindByHash("hash-1")
			Expect(err).To(MatchError(ErrNotFound))
		})

		When("receipt does not exist", func() {
			It("should return ErrNotFound", func() {
				Expect(db.DeleteReceipt("nonexistent")).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("reopening", func() {
		It("should keep saved receipts", func() {
			Expect(db.SaveReceipt(newReceipt("test-id", "hash-1"))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())

			found, err := db.FindByHash("hash-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal("test-id"))
			Expect(found.Result.Fields.Missing()).To(ContainElement(scanning.FieldPaymentMethod))
		})
	})
})
