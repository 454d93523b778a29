package scan

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.etcd.io/bbolt"
)

var _ = Describe("BoltDB", func() {
	var (
		raw *bbolt.DB
		db  *BoltDB
	)

	BeforeEach(func() {
		path := filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		raw, err = bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
		Expect(err).NotTo(HaveOccurred())
		db, err = NewBoltDB(raw)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if raw != nil {
			raw.Close()
		}
	})

	record := func(id, owner string, scannedAt time.Time) *Record {
		return &Record{
			ID:         id,
			OwnerID:    owner,
			OwnerEmail: owner + "@example.com",
			Data:       "payload-" + id,
			Type:       "org.iso.QRCode",
			ScannedAt:  scannedAt,
		}
	}

	Describe("SaveScan and GetScan", func() {
		It("round-trips a record", func() {
			scannedAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
			Expect(db.SaveScan(record("s1", "u1", scannedAt))).To(Succeed())

			saved, err := db.GetScan("s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Data).To(Equal("payload-s1"))
			Expect(saved.ScannedAt.Equal(scannedAt)).To(BeTrue())
		})

		It("returns ErrScanNotFound for a missing record", func() {
			_, err := db.GetScan("nope")
			Expect(err).To(MatchError(ErrScanNotFound))
		})
	})

	Describe("ListScans", func() {
		var base time.Time

		BeforeEach(func() {
			base = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
			Expect(db.SaveScan(record("s1", "u1", base))).To(Succeed())
			Expect(db.SaveScan(record("s2", "u1", base.Add(time.Minute)))).To(Succeed())
			Expect(db.SaveScan(record("s3", "u2", base.Add(2*time.Minute)))).To(Succeed())
		})

		It("returns only the owner's records", func() {
			records, err := db.ListScans("u1", SortDescending)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			for _, r := range records {
				Expect(r.OwnerID).To(Equal("u1"))
			}
		})

		It("orders ascending by scan time", func() {
			records, err := db.ListScans("u1", SortAscending)
			Expect(err).NotTo(HaveOccurred())
			Expect(records[0].ID).To(Equal("s1"))
			Expect(records[1].ID).To(Equal("s2"))
		})

		It("orders descending by scan time", func() {
			records, err := db.ListScans("u1", SortDescending)
			Expect(err).NotTo(HaveOccurred())
			Expect(records[0].ID).To(Equal("s2"))
			Expect(records[1].ID).To(Equal("s1"))
		})

		It("returns an empty slice for an unknown owner", func() {
			records, err := db.ListScans("u3", SortDescending)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})
})
