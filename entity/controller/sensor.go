package controller

// SensorInput 传感器输入
// 功能：承载一次传感器上报，支持绝对计数与到达/离开增量两种格式
// 说明：存在arrivals/departures任一字段时按增量模式处理，否则按绝对模式
type SensorInput struct {
	North *int `json:"north,omitempty"`
	South *int `json:"south,omitempty"`
	East  *int `json:"east,omitempty"`
	West  *int `json:"west,omitempty"`

	Arrivals   map[Approach]int `json:"arrivals,omitempty"`
	Departures map[Approach]int `json:"departures,omitempty"`

	Occupancy *int `json:"occupancy,omitempty"`
}

// count 获取绝对模式下指定进口道的计数，未给出时返回nil
func (in SensorInput) count(a Approach) *int {
	switch a {
	case ApproachNorth:
		return in.North
	case ApproachSouth:
		return in.South
	case ApproachEast:
		return in.East
	case ApproachWest:
		return in.West
	}
	return nil
}

// ParseSensorInput 从宽松的JSON对象解析传感器输入
// 功能：逐字段解析上报数据，无法解析的字段单独忽略
// 参数：raw-反序列化后的JSON对象
// 返回：解析结果
// 说明：数值字段接受JSON number（float64）与整数；类型错误不使整体失败
func ParseSensorInput(raw map[string]any) SensorInput {
	in := SensorInput{}
	abs := func(key string) *int {
		v, ok := asInt(raw[key])
		if !ok {
			return nil
		}
		return &v
	}
	in.North = abs("north")
	in.South = abs("south")
	in.East = abs("east")
	in.West = abs("west")

	in.Arrivals = asDeltaMap(raw["arrivals"])
	in.Departures = asDeltaMap(raw["departures"])

	if v, ok := asInt(raw["occupancy"]); ok {
		in.Occupancy = &v
	}
	return in
}

// asDeltaMap 解析增量映射，非对象或空对象返回nil
func asDeltaMap(v any) map[Approach]int {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	m := make(map[Approach]int)
	for _, a := range Approaches {
		if n, ok := asInt(obj[string(a)]); ok {
			m[a] = n
		}
	}
	return m
}

// asInt 宽松地将JSON值转换为整数
func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case nil:
		return 0, false
	default:
		return 0, false
	}
}
