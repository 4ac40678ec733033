package model

// All 返回需要建表的全部模型，迁移与测试共用。
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Cart{},
		&CartLine{},
		&Coupon{},
		&Order{},
		&OrderLine{},
		&Payment{},
	}
}
