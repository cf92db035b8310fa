package models

// PresetStories - каталог готовых историй, отдаётся клиенту как есть.
var PresetStories = []PresetStory{
	{
		ID:          "cinderella",
		Title:       "Cinderella",
		Description: "Experience the magic of the classic tale where a kind-hearted child transforms from rags to royalty with the help of a fairy godmother.",
		CoverImage:  "https://images.pexels.com/photos/1985863/pexels-photo-1985863.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
		AgeRange:    "4-8",
		IsPreset:    true,
	},
	{
		ID:          "little-red",
		Title:       "Little Red Riding Hood",
		Description: "Join an adventure through the forest to grandmother's house, but beware of the cunning wolf who has other plans.",
		CoverImage:  "https://images.pexels.com/photos/5278697/pexels-photo-5278697.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
		AgeRange:    "4-8",
		IsPreset:    true,
	},
	{
		ID:          "three-pigs",
		Title:       "Three Little Pigs",
		Description: "Learn about hard work and perseverance as three little pigs build their houses to protect themselves from the big bad wolf.",
		CoverImage:  "https://images.pexels.com/photos/1108099/pexels-photo-1108099.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
		AgeRange:    "3-7",
		IsPreset:    true,
	},
	{
		ID:          "jack-beanstalk",
		Title:       "Jack and the Beanstalk",
		Description: "Climb a magical beanstalk to a giant's castle in the clouds and discover treasures beyond imagination.",
		CoverImage:  "https://images.pexels.com/photos/2832077/pexels-photo-2832077.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
		AgeRange:    "5-9",
		IsPreset:    true,
	},
	{
		ID:          "goldilocks",
		Title:       "Goldilocks and the Three Bears",
		Description: "Follow the curious adventures of a little girl who discovers a house in the forest belonging to three bears.",
		CoverImage:  "https://images.pexels.com/photos/3061171/pexels-photo-3061171.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
		AgeRange:    "3-6",
		IsPreset:    true,
	},
	{
		ID:          "snow-white",
		Title:       "Snow White",
		Description: "Experience the tale of a princess, seven dwarfs, and a magical adventure filled with friendship and courage.",
		CoverImage:  "https://images.pexels.com/photos/2960887/pexels-photo-2960887.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
		AgeRange:    "5-10",
		IsPreset:    true,
	},
}
