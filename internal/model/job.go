package model

// Job bits in the packed item_db job mask.
const (
	jobNovice        = 0
	jobThief         = 6
	jobKnight        = 7
	jobPriest        = 8
	jobWizard        = 9
	jobBlacksmith    = 10
	jobHunter        = 11
	jobAssassin      = 12
	jobCrusader      = 14
	jobMonk          = 15
	jobSage          = 16
	jobRogue         = 17
	jobAlchemist     = 18
	jobBard          = 19
	jobTaekwon       = 21
	jobStarGlad      = 22
	jobSoulLinker    = 23
	jobGunslinger    = 24
	jobNinja         = 25
	jobGangsi        = 26
	jobDeathKnight   = 27
	jobDarkCollector = 28
	jobKagerou       = 29
	jobRebellion     = 30
)

// Map class ids used by the equip check.
const (
	MapIDNovice     = 0x0
	MapIDSwordman   = 0x1
	MapIDMage       = 0x2
	MapIDArcher     = 0x3
	MapIDAcolyte    = 0x4
	MapIDMerchant   = 0x5
	MapIDThief      = 0x6
	MapIDTaekwon    = 0x7
	MapIDGunslinger = 0x9
	MapIDNinja      = 0xA
	MapIDGangsi     = 0xE
)

// Class tiers of ItemRecord.ClassBase.
const (
	ClassTierBase = 0
	ClassTier21   = 1
	ClassTier22   = 2
)

// JobMaskToClassMasks разворачивает 32-битную job mask из item_db в три маски
// (base, 2-1, 2-2) по map class id.
func JobMaskToClassMasks(jobMask uint32) [3]uint32 {
	var out [3]uint32
	has := func(bit int) bool { return jobMask&(1<<bit) != 0 }

	// Novice и Super Novice делят один бит.
	if has(jobNovice) {
		out[ClassTierBase] |= 1 << MapIDNovice
		out[ClassTier21] |= 1 << MapIDNovice
	}
	for bit := jobNovice + 1; bit <= jobThief; bit++ {
		if has(bit) {
			out[ClassTierBase] |= 1 << (MapIDNovice + bit)
		}
	}

	tier21 := []struct{ bit, mapID int }{
		{jobKnight, MapIDSwordman},
		{jobPriest, MapIDAcolyte},
		{jobWizard, MapIDMage},
		{jobBlacksmith, MapIDMerchant},
		{jobHunter, MapIDArcher},
		{jobAssassin, MapIDThief},
		{jobStarGlad, MapIDTaekwon},
		{jobDeathKnight, MapIDGangsi},
		{jobKagerou, MapIDNinja},
		{jobRebellion, MapIDGunslinger},
	}
	for _, m := range tier21 {
		if has(m.bit) {
			out[ClassTier21] |= 1 << m.mapID
		}
	}

	// Bard and Dancer share one slot.
	tier22 := []struct{ bit, mapID int }{
		{jobCrusader, MapIDSwordman},
		{jobMonk, MapIDAcolyte},
		{jobSage, MapIDMage},
		{jobAlchemist, MapIDMerchant},
		{jobBard, MapIDArcher},
		{jobRogue, MapIDThief},
		{jobSoulLinker, MapIDTaekwon},
		{jobDarkCollector, MapIDGangsi},
	}
	for _, m := range tier22 {
		if has(m.bit) {
			out[ClassTier22] |= 1 << m.mapID
		}
	}

	if has(jobTaekwon) {
		out[ClassTierBase] |= 1 << MapIDTaekwon
	}
	if has(jobGunslinger) {
		out[ClassTierBase] |= 1 << MapIDGunslinger
		out[ClassTier21] |= 1 << MapIDGunslinger
	}
	if has(jobNinja) {
		out[ClassTierBase] |= 1 << MapIDNinja
		out[ClassTier21] |= 1 << MapIDNinja
	}
	if has(jobGangsi) {
		out[ClassTierBase] |= 1 << MapIDGangsi
	}
	return out
}
