// Package mysql 基于GORM的关系型数据库仓储实现
//
// 同一套模型和仓储同时支持MySQL和PostgreSQL,由config.DatabaseConfig.Driver选择方言。
// 仓储负责领域实体与GORM模型之间的转换,并把数据库错误翻译成领域错误。
package mysql

import (
	"fmt"
	"time"

	_ "github.com/lib/pq" // 注册database/sql的postgres驱动
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 1. 按Driver选择方言
// 2. SQL日志接入logrus
// 3. 配置连接池并Ping
// 4. AutoMigrate开启时迁移表结构
func NewDB(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(log, ParseLogLevel(cfg.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.WithFields(logrus.Fields{
		"driver": cfg.Driver,
		"host":   cfg.Host,
		"db":     cfg.DBName,
	}).Info("数据库连接成功")

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}
	return db, nil
}

func openDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL, "":
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		// 使用lib/pq作为底层驱动,错误类型统一为*pq.Error
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: cfg.DSN()}), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// Migrate 迁移表结构
// AutoMigrate只会建表和加字段,不会删除或修改现有字段
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&CategoryModel{},
		&BookModel{},
		&OrderModel{},
		&OrderItemModel{},
	)
}

// UserModel GORM用户模型
// 领域实体不带GORM tag,由仓储负责转换
type UserModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null;comment:姓名"`
	Email     string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string    `gorm:"size:255;not null;comment:密码(bcrypt)"`
	Address   string    `gorm:"size:255;comment:地址"`
	Phone     string    `gorm:"size:50;comment:电话"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (UserModel) TableName() string {
	return "users"
}

// CategoryModel GORM分类模型
type CategoryModel struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"uniqueIndex;size:100;not null;comment:分类名"`
	Description string    `gorm:"type:text;comment:描述"`
	CreatedAt   time.Time `gorm:"comment:创建时间"`
	UpdatedAt   time.Time `gorm:"comment:更新时间"`
}

func (CategoryModel) TableName() string {
	return "categories"
}

// BookModel GORM图书模型
// 1. 价格用decimal(10,2)存储
// 2. ISBN唯一索引
// 3. CategoryID可为空
type BookModel struct {
	ID              uint            `gorm:"primaryKey"`
	Title           string          `gorm:"index:idx_search;size:200;not null;comment:书名"`
	Author          string          `gorm:"index:idx_search;size:100;not null;comment:作者"`
	Description     string          `gorm:"type:text;comment:简介"`
	ISBN            string          `gorm:"column:isbn;uniqueIndex;size:20;not null;comment:ISBN号"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:价格"`
	Stock           int             `gorm:"not null;default:0;comment:库存数量"`
	CategoryID      *uint           `gorm:"index;comment:分类ID"`
	Publisher       string          `gorm:"size:100;comment:出版社"`
	PublicationYear int             `gorm:"index;comment:出版年份"`
	Language        string          `gorm:"size:50;comment:语言"`
	PageCount       int             `gorm:"comment:页数"`
	CreatedAt       time.Time       `gorm:"comment:创建时间"`
	UpdatedAt       time.Time       `gorm:"comment:更新时间"`
}

func (BookModel) TableName() string {
	return "books"
}

// OrderModel GORM订单模型
// 与OrderItemModel一对多,OrderNo唯一
type OrderModel struct {
	ID              uint             `gorm:"primaryKey"`
	OrderNo         string           `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID          uint             `gorm:"index;not null;comment:用户ID"`
	Status          string           `gorm:"index;size:20;not null;comment:订单状态"`
	TotalAmount     decimal.Decimal  `gorm:"type:decimal(10,2);not null;comment:订单总额"`
	ShippingAddress string           `gorm:"size:255;comment:收货地址"`
	BillingAddress  string           `gorm:"size:255;comment:账单地址"`
	PaymentMethod   string           `gorm:"size:50;comment:支付方式"`
	TrackingNumber  *string          `gorm:"size:100;comment:物流单号"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt       time.Time        `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel GORM订单明细模型
// Price是加入订单时的单价快照
type OrderItemModel struct {
	ID       uint            `gorm:"primaryKey"`
	OrderID  uint            `gorm:"index;not null;comment:订单ID"`
	BookID   uint            `gorm:"index;not null;comment:图书ID"`
	Quantity int             `gorm:"not null;comment:数量"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:单价快照"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}
