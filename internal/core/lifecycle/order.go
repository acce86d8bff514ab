package lifecycle

import (
	"cmp"
	"fmt"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
)

// DefaultOrder 未指定时的顺序值
const DefaultOrder = 0

// Participant 启停参与者
//
// Order 越小越先启动、越晚停止。Order 在注册后固定不变。
type Participant struct {
	// Name 参与者名称，用于日志和错误；为空时取组件类型名
	Name string

	// Order 启动顺序
	Order int

	// Component 被编排的组件
	Component interfaces.LifeCycle

	// seq 注册序号，Order 相同时的稳定次序
	seq uint64
}

// NewParticipant 创建参与者
func NewParticipant(name string, order int, component interfaces.LifeCycle) Participant {
	return Participant{Name: name, Order: order, Component: component}
}

// displayName 返回用于日志的名称
func (p Participant) displayName() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%T", p.Component)
}

// Compare 比较两个参与者的启动先后
//
// 先比较 Order，再比较注册序号，得到全序。
func Compare(a, b Participant) int {
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}
