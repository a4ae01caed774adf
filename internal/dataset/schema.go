package dataset

// Field declares one canonical column and the source spellings that may
// carry it. Aliases are tried in order and the first column present in a
// row wins; the canonical name itself is always the first alias so that
// exported files resolve back onto the same field.
type Field struct {
	Name    string
	Aliases []string
}

// Schema is the declared column mapping for one dataset kind. Canonical
// shapes are fixed ahead of time and never inferred from header text,
// because header spellings drift between dataset revisions and the same
// concept can be spelled differently across files.
type Schema struct {
	Kind        Kind
	DateAliases []string
	Metrics     []Field
	Indicators  []Field
	Texts       []Field
}

// DateColumn is the canonical name of the date column in exports.
const DateColumn = "date"

// Columns returns the canonical header in export order: date, metrics,
// indicators, then free-text fields. This ordering is the stable contract
// with the rendering layer and the exporter.
func (s Schema) Columns() []string {
	cols := make([]string, 0, 1+len(s.Metrics)+len(s.Indicators)+len(s.Texts))
	cols = append(cols, DateColumn)
	for _, f := range s.Metrics {
		cols = append(cols, f.Name)
	}
	for _, f := range s.Indicators {
		cols = append(cols, f.Name)
	}
	for _, f := range s.Texts {
		cols = append(cols, f.Name)
	}
	return cols
}

func field(name string, sourceAliases ...string) Field {
	return Field{Name: name, Aliases: append([]string{name}, sourceAliases...)}
}

// comprehensiveSchema maps the merged daily activity log
// (merged_comprehensive_data_M.csv). The Foreign_battleship aliases carry
// the drifted spellings observed in real files; a row matching none of
// them surfaces as an unmappable column, never a guess.
var comprehensiveSchema = Schema{
	Kind:        KindComprehensive,
	DateAliases: []string{DateColumn},
	Metrics: []Field{
		field("aircraftSorties", "pla_aircraft_sorties"),
		field("vesselSorties", "plan_vessel_sorties"),
	},
	Indicators: []Field{
		field("carrierPresent", "china_carrier_present"),
		field("usTaiwanInteraction", "US_Taiwan_interaction"),
		field("politicalStatement", "Political_statement"),
		field("foreignBattleship", "Foreign_battleship", "battleship(<3)", "battleshi1(<3)"),
	},
	Texts: []Field{
		field("remark"),
	},
}

// straitTransitSchema maps the naval transit log (JapanandBattleship.csv),
// whose event columns are named in Chinese. 大禹 is the spelling the source
// files actually use for the Osumi strait; 大隅 is the documented one.
var straitTransitSchema = Schema{
	Kind:        KindStraitTransit,
	DateAliases: []string{DateColumn},
	Metrics: []Field{
		field("aircraftSorties", "pla_aircraft_sorties"),
	},
	Indicators: []Field{
		field("aerialActivity", "空中"),
		field("jointExercise", "聯合演訓"),
		field("shipTransit", "艦通過"),
		field("carrierActivity", "航母活動"),
		field("yonaguni", "與那國"),
		field("miyako", "宮古"),
		field("osumi", "大禹", "大隅"),
		field("tsushima", "對馬"),
		field("inbound", "進"),
		field("outbound", "出"),
	},
	Texts: []Field{
		field("vesselType", "艦型"),
		field("remark"),
	},
}

// SchemaFor returns the declared schema for a dataset kind.
func SchemaFor(kind Kind) (Schema, bool) {
	switch kind {
	case KindComprehensive:
		return comprehensiveSchema, true
	case KindStraitTransit:
		return straitTransitSchema, true
	default:
		return Schema{}, false
	}
}
