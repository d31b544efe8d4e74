// Package entity 定义领域实体
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NodeID 情节节点 ID
// LLM 生成的 plotGraph 中 id 可能是数字也可能是字符串，统一按字符串比较
type NodeID string

// UnmarshalJSON 同时接受 JSON 字符串与数字
func (n *NodeID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NodeID(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("event node id must be a string or number: %w", err)
	}
	*n = NodeID(num.String())
	return nil
}

// EventNode 情节图中的事件节点
type EventNode struct {
	ID                NodeID `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ExpectedWordCount int    `json:"expectedWordCount"`

	// numericID 记录 id 原本是 JSON 数字，序列化时按原样输出
	numericID bool
}

// MarshalJSON 数字形式的 id 仍输出为数字
func (n EventNode) MarshalJSON() ([]byte, error) {
	type alias EventNode
	out := struct {
		ID any `json:"id"`
		alias
	}{ID: string(n.ID), alias: alias(n)}
	if n.numericID {
		out.ID = json.Number(n.ID)
	}
	return json.Marshal(out)
}

// UnmarshalJSON 解码节点并记录 id 的原始形式
func (n *EventNode) UnmarshalJSON(b []byte) error {
	type alias EventNode
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	n.ID = ""
	n.numericID = false
	raw := bytes.TrimSpace(aux.ID)
	if len(raw) == 0 {
		return nil
	}
	if err := n.ID.UnmarshalJSON(raw); err != nil {
		return err
	}
	n.numericID = raw[0] != '"' && !bytes.Equal(raw, []byte("null"))
	return nil
}

// JSONMap 开放结构的 JSON 对象
type JSONMap map[string]any

// Story 故事蓝图实体
type Story struct {
	ID             string      `json:"_id" gorm:"type:uuid;primaryKey"`
	Premise        string      `json:"premise" gorm:"type:text"`
	Structure      string      `json:"structure" gorm:"type:text"`
	PlotGraph      []EventNode `json:"plotGraph" gorm:"type:jsonb;serializer:json"`
	WorldBible     JSONMap     `json:"worldBible" gorm:"type:jsonb;serializer:json"`
	StyleGuide     JSONMap     `json:"styleGuide" gorm:"type:jsonb;serializer:json"`
	CharacterCodex JSONMap     `json:"characterCodex" gorm:"type:jsonb;serializer:json"`
	CreatedAt      time.Time   `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time   `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Story) TableName() string {
	return "stories"
}

// NewStory 创建空白故事蓝图
func NewStory() *Story {
	s := &Story{}
	s.Normalize()
	return s
}

// Normalize 为缺失的子结构填充空默认值
func (s *Story) Normalize() {
	if s.PlotGraph == nil {
		s.PlotGraph = []EventNode{}
	}
	if s.WorldBible == nil {
		s.WorldBible = defaultWorldBible()
	}
	if s.StyleGuide == nil {
		s.StyleGuide = JSONMap{}
	}
	if s.CharacterCodex == nil {
		s.CharacterCodex = JSONMap{}
	}
}

func defaultWorldBible() JSONMap {
	return JSONMap{
		"locations":    map[string]any{},
		"magicSystems": map[string]any{},
	}
}

// ReplaceContent 用 src 的内容整体覆盖当前蓝图，ID 与创建时间保持不变
func (s *Story) ReplaceContent(src *Story) {
	s.Premise = src.Premise
	s.Structure = src.Structure
	s.PlotGraph = src.PlotGraph
	s.WorldBible = src.WorldBible
	s.StyleGuide = src.StyleGuide
	s.CharacterCodex = src.CharacterCodex
	s.Normalize()
}

// FindEventNode 在情节图中查找节点
func (s *Story) FindEventNode(id NodeID) (*EventNode, bool) {
	want := strings.TrimSpace(string(id))
	for i := range s.PlotGraph {
		if strings.TrimSpace(string(s.PlotGraph[i].ID)) == want {
			return &s.PlotGraph[i], true
		}
	}
	return nil, false
}
