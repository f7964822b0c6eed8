// Package optional 提供部分更新(PATCH)使用的三态字段
//
// 普通指针字段只能区分"未提供"和"提供了值",无法表达"显式清空"。
// Nullable区分三种状态:
//   - 未提供: Set == false
//   - 显式置空: Set == true && Null == true (JSON里写了 null)
//   - 提供了值: Set == true && Null == false
package optional

import (
	"bytes"
	"encoding/json"
)

// Nullable 可清空的可选字段
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of 提供了值
func Of[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: v}
}

// Null 显式置空
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true, Null: true}
}

// Apply 把字段合并到目标指针上,未提供时不做任何修改
func (n Nullable[T]) Apply(dst **T) {
	if !n.Set {
		return
	}
	if n.Null {
		*dst = nil
		return
	}
	v := n.Value
	*dst = &v
}

// Ptr 提供了值时返回指针,否则返回nil
func (n Nullable[T]) Ptr() *T {
	if !n.Set || n.Null {
		return nil
	}
	v := n.Value
	return &v
}

// UnmarshalJSON 只有JSON中出现了该键才会被调用,因此Set=true
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Null = true
		var zero T
		n.Value = zero
		return nil
	}
	n.Null = false
	return json.Unmarshal(data, &n.Value)
}

// MarshalJSON 未提供或置空都输出null
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Null {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
