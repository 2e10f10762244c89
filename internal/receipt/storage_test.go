package receipt

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			key       string
			data      []byte
			savedPath string
			err       error
		)

		BeforeEach(func() {
			key = "ab12cd.jpg"
			data = []byte("test file content")
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(key, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return a path inside the key's shard", func() {
				Expect(savedPath).To(Equal(filepath.Join("ab", "ab12cd.jpg")))
			})

			It("should save the file to disk", func() {
				Expect(filepath.Join(tmpDir, savedPath)).To(BeAnExistingFile())
			})

			It("should not leave temp files behind", func() {
				matches, globErr := filepath.Glob(filepath.Join(tmpDir, "ab", ".upload-*"))
				Expect(globErr).NotTo(HaveOccurred())
				Expect(matches).To(BeEmpty())
			})
		})

		When("the key already exists", func() {
			BeforeEach(func() {
				_, saveErr := storage.Save(key, []byte("old content"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should replace the content", func() {
				Expect(err).NotTo(HaveOccurred())
				stored, getErr := storage.Get(savedPath)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(string(stored)).To(Equal("test file content"))
			})
		})

		When("the key contains a path separator", func() {
			BeforeEach(func() {
				key = "../escape.jpg"
			})

			It("should return an error", func() {
				Expect(err).To(MatchError(ContainSubstring("invalid storage key")))
			})
		})
	})

	Describe("Get", func() {
		var (
			path string
			data []byte
			err  error
		)

		JustBeforeEach(func() {
			data, err = storage.Get(path)
		})

		When("file exists", func() {
			BeforeEach(func() {
				var saveErr error
				path, saveErr = storage.Save("ff00.pdf", []byte("test file content"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the correct file data", func() {
				Expect(string(data)).To(Equal("test file content"))
			})
		})

		When("file does not exist", func() {
			BeforeEach(func() {
				path = filepath.Join("no", "nonexistent.jpg")
			})

			It("should return an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})

		When("the path leaves the storage directory", func() {
			BeforeEach(func() {
				path = filepath.Join("..", "secret")
			})

			It("should return an error", func() {
				Expect(err).To(MatchError(ContainSubstring("invalid storage path")))
			})
		})
	})

	Describe("Delete", func() {
		var (
			path string
			err  error
		)

		JustBeforeEach(func() {
			err = storage.Delete(path)
		})

		When("file exists", func() {
			BeforeEach(func() {
				var saveErr error
				path, saveErr = storage.Save("ee11.png", []byte("test file content"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should delete the file and its empty shard", func() {
				Expect(filepath.Join(tmpDir, path)).NotTo(BeAnExistingFile())
				Expect(filepath.Join(tmpDir, "ee")).NotTo(BeADirectory())
			})

			It("should keep the storage directory", func() {
				Expect(tmpDir).To(BeADirectory())
			})
		})

		When("file does not exist", func() {
			BeforeEach(func() {
				path = filepath.Join("no", "nonexistent.jpg")
			})

			It("should return an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
