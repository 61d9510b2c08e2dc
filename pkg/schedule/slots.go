package schedule

// TimeSlot is one column of the weekly grid.
type TimeSlot struct {
	Period int
	Time   string
	Lunch  bool
}

// TimeSlots is static layout: the lunch slot never shows stored data, even if
// a period document exists for it.
var TimeSlots = []TimeSlot{
	{Period: 1, Time: "9:00 - 10:00"},
	{Period: 2, Time: "10:00 - 11:00"},
	{Period: 3, Time: "11:00 - 12:00"},
	{Period: 4, Time: "12:00 - 1:00", Lunch: true},
	{Period: 5, Time: "1:00 - 2:00"},
	{Period: 6, Time: "2:00 - 3:00"},
	{Period: 7, Time: "3:00 - 4:00"},
	{Period: 8, Time: "4:00 - 5:00"},
}
