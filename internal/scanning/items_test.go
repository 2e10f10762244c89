package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-extract/internal/textlayer"
)

var _ = Describe("ExtractItems", func() {
	var (
		input string
		items []LineItem
	)

	JustBeforeEach(func() {
		items = ExtractItems(textlayer.FromString(input))
	})

	When("reading a complete receipt", func() {
		BeforeEach(func() {
			input = reweReceipt
		})

		It("parses every item line in order", func() {
			Expect(items).To(HaveLen(3))
			Expect(items[0].Name).To(Equal("Milch"))
			Expect(items[1].Name).To(Equal("Bio Bananen"))
			Expect(items[2].Name).To(Equal("Brot"))
		})

		It("reads quantity and unit price from multiplication lines", func() {
			Expect(items[0].Quantity.String()).To(Equal("1.2"))
			Expect(items[0].UnitPrice.String()).To(Equal("0.89"))
			Expect(items[0].TotalPrice.String()).To(Equal("1.07"))
		})

		It("reads the price of VAT class lines", func() {
			Expect(items[1].TotalPrice.String()).To(Equal("1.99"))
			Expect(items[1].Quantity).To(BeNil())
			Expect(items[1].UnitPrice).To(BeNil())
		})

		It("reads the price of plain lines", func() {
			Expect(items[2].TotalPrice.String()).To(Equal("2.49"))
		})

		It("skips tax annotations and URLs", func() {
			for _, item := range items {
				Expect(item.Name).NotTo(ContainSubstring("MwSt"))
				Expect(item.Name).NotTo(ContainSubstring("www"))
			}
		})

		It("is a pure function of the text", func() {
			Expect(ExtractItems(textlayer.FromString(input))).To(Equal(items))
		})
	})

	When("there is no start marker", func() {
		BeforeEach(func() {
			input = "Milch 0,89\nBrot 1,29\n--------"
		})

		It("returns no items", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("there is a start but no end marker", func() {
		BeforeEach(func() {
			input = "3 Artikel\nMilch 0,89\nBrot 1,29\nKäse 2,99"
		})

		It("returns no items", func() {
			Expect(items).To(BeEmpty())
			Expect(items).NotTo(BeNil())
		})
	})

	When("the table is headed by a column title", func() {
		BeforeEach(func() {
			input = "Pos. Artikel Preis\nÄpfel 2 x 1,50 3,00\nPfand 0,25\nRabatt 0,50\nNetto 2,52\nzu zahlen 3,00"
		})

		It("keeps purchases and drops annotations", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("Äpfel"))
			Expect(items[0].Quantity.String()).To(Equal("2"))
			Expect(items[0].TotalPrice.String()).To(Equal("3.00"))
		})
	})

	Describe("line grammars", func() {
		DescribeTable("a single line inside a table",
			func(line string, name string, total string, withQuantity bool) {
				parsed := ExtractItems(textlayer.FromString("Ihre Einkäufe\n" + line + "\nGesamtbetrag 9,99"))
				if name == "" {
					Expect(parsed).To(BeEmpty())
					return
				}
				Expect(parsed).To(HaveLen(1))
				Expect(parsed[0].Name).To(Equal(name))
				Expect(parsed[0].TotalPrice.String()).To(Equal(total))
				Expect(parsed[0].Quantity != nil).To(Equal(withQuantity))
			},
			Entry("quantity line wins over the fallback", "Milch 1,2 x 0,89 1,07", "Milch", "1.07", true),
			Entry("upper case multiplication sign", "Eier 10X0,25 2,50", "Eier", "2.50", true),
			Entry("VAT class with one decimal", "Brezel 0,5 A", "Brezel", "0.50", false),
			Entry("VAT class wins over quantity", "Saft 2 x 1,00 2,00 B", "Saft 2 x 1,00", "2.00", false),
			Entry("plain fallback", "Brot 2,49", "Brot", "2.49", false),
			Entry("tax annotation", "MwSt. 7% 0,42", "", "", false),
			Entry("deposit", "Pfand 0,25", "", "", false),
			Entry("gross label", "Brutto 5,00", "", "", false),
			Entry("bare currency code", "EUR", "", "", false),
			Entry("link", "http://example.com 1,00", "", "", false),
			Entry("no price", "Vielen Dank", "", "", false),
		)
	})
})
