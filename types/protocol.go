package types

// ProtocolID 加载协议标识
type ProtocolID string

// 加载协议常量定义
const (
	ProtocolConstant ProtocolID = "constant" // 恒定拉伸
	ProtocolLinear   ProtocolID = "linear"   // 线性增长拉伸
	ProtocolCyclic   ProtocolID = "cyclic"   // 循环拉伸 sin²
)

// Protocols 协议的规范顺序
var Protocols = []ProtocolID{ProtocolConstant, ProtocolLinear, ProtocolCyclic}

// String 返回协议名称
func (id ProtocolID) String() string { return string(id) }

// Valid 是否为已知协议
func (id ProtocolID) Valid() bool {
	for _, p := range Protocols {
		if p == id {
			return true
		}
	}
	return false
}
