package seeds

import (
	"github.com/MrWong99/seedkit/internal/fixture"
	"github.com/MrWong99/seedkit/pkg/seed"
)

// Entity types produced by the built-in seeds.
const (
	Faction  seed.EntityType = "faction"
	Location seed.EntityType = "location"
	NPC      seed.EntityType = "npc"
	Item     seed.EntityType = "item"
	Quest    seed.EntityType = "quest"
)

func init() {
	register("factions", Faction, nil,
		fixture.Record{ID: "fac-lords-alliance", Name: "Lords' Alliance", Tags: []string{"lawful"}},
		fixture.Record{ID: "fac-zhentarim", Name: "Zhentarim", Tags: []string{"mercenary"}},
	)

	register("locations", Location, nil,
		fixture.Record{ID: "loc-phandalin", Name: "Phandalin", Attributes: map[string]string{"region": "sword-coast"}, Tags: []string{"town"}},
		fixture.Record{ID: "loc-cragmaw", Name: "Cragmaw Hideout", Attributes: map[string]string{"region": "triboar-trail"}, Tags: []string{"dungeon"}},
	)

	register("npcs", NPC, []seed.EntityType{Location, Faction},
		fixture.Record{ID: "npc-gundren", Name: "Gundren Rockseeker", Attributes: map[string]string{"home": "loc-phandalin"}, Tags: []string{"dwarf"}},
		fixture.Record{ID: "npc-sildar", Name: "Sildar Hallwinter", Attributes: map[string]string{"faction": "fac-lords-alliance"}, Tags: []string{"human"}},
	)

	// Two seeds produce items; mundane gear runs before magic items.
	register("items-mundane", Item, nil,
		fixture.Record{ID: "item-rope", Name: "Hempen Rope", Tags: []string{"gear"}},
	)
	register("items-magic", Item, []seed.EntityType{NPC},
		fixture.Record{ID: "item-talon", Name: "Talon", Attributes: map[string]string{"owner": "npc-sildar"}, Tags: []string{"magic"}},
	)

	register("quests", Quest, []seed.EntityType{NPC},
		fixture.Record{ID: "quest-escort", Name: "Escort the Wagon", Attributes: map[string]string{"giver": "npc-gundren"}},
	)
}
