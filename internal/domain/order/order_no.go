package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderNo 生成订单号
// 格式: ORD + yyyyMMddHHmmss + UUID前8位(大写)
// 示例: ORD20240115103000A1B2C3D4
// 订单号只用于展示和客服查询,数据库主键仍是自增ID
func GenerateOrderNo() string {
	return generateOrderNo(time.Now(), uuid.New())
}

func generateOrderNo(now time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("ORD%s%s", now.Format("20060102150405"), suffix)
}
