package database_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/leave-management/internal/core/database"
)

type widget struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

var _ = Describe("Transactor", func() {
	var (
		db *gorm.DB
		tx *database.Transactor
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&widget{})).To(Succeed())
		tx = database.NewTransactor(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("commits every write made through Conn", func() {
		err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
			Expect(database.InTransaction(ctx)).To(BeTrue())
			if err := database.Conn(ctx, db).Create(&widget{Name: "a"}).Error; err != nil {
				return err
			}
			return database.Conn(ctx, db).Create(&widget{Name: "b"}).Error
		})
		Expect(err).NotTo(HaveOccurred())

		var count int64
		Expect(db.Model(&widget{}).Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(2)))
	})

	It("rolls back all writes when the function fails", func() {
		boom := errors.New("boom")
		err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
			Expect(database.Conn(ctx, db).Create(&widget{Name: "a"}).Error).To(Succeed())
			return boom
		})
		Expect(err).To(MatchError(boom))

		var count int64
		Expect(db.Model(&widget{}).Count(&count).Error).To(Succeed())
		Expect(count).To(BeZero())
	})

	It("joins an outer transaction instead of nesting", func() {
		err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
			Expect(database.Conn(ctx, db).Create(&widget{Name: "outer"}).Error).To(Succeed())
			inner := tx.WithinTransaction(ctx, func(ctx context.Context) error {
				return database.Conn(ctx, db).Create(&widget{Name: "inner"}).Error
			})
			Expect(inner).NotTo(HaveOccurred())
			return errors.New("abort")
		})
		Expect(err).To(HaveOccurred())

		var count int64
		Expect(db.Model(&widget{}).Count(&count).Error).To(Succeed())
		Expect(count).To(BeZero())
	})

	It("translates unique violations into duplicate errors", func() {
		Expect(db.Create(&widget{Name: "same"}).Error).To(Succeed())
		err := db.Create(&widget{Name: "same"}).Error
		Expect(database.IsDuplicate(err)).To(BeTrue())
	})

	It("recognises missing rows", func() {
		var w widget
		err := db.First(&w, 42).Error
		Expect(database.IsNotFound(err)).To(BeTrue())
	})
})
