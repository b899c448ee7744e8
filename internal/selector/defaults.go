// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package selector

import "github.com/tomtom215/trinity/internal/models"

// PlaceholderPoster is served for built-in items without a known poster.
const PlaceholderPoster = "/placeholder-poster.jpg"

func builtin(id, title, lang, poster string, genres []int, overview string) models.CandidateItem {
	if poster == "" {
		poster = PlaceholderPoster
	}
	return models.CandidateItem{
		ExternalID: id,
		Title:      title,
		Overview:   overview,
		Genres:     genres,
		PosterRef:  poster,
		Language:   lang,
		Tier:       models.TierPopular,
		Synthetic:  true,
	}
}

// defaultMovies are served when the catalog is unavailable.
var defaultMovies = []models.CandidateItem{
	builtin("550", "Fight Club", "en", "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", []int{18},
		"An insomniac office worker and a soap salesman start an underground fight club that grows into something far more dangerous."),
	builtin("13", "Forrest Gump", "en", "/arw2vcBveWOVZr6pxd9XTd1TdQa.jpg", []int{35, 18, 10749},
		"A kind man with a low IQ drifts through decades of American history while never letting go of his childhood love."),
	builtin("278", "The Shawshank Redemption", "en", "/q6y0Go1tsGEsmtFryDOJo3dEmqu.jpg", []int{18, 80},
		"Two imprisoned men bond over a number of years, finding solace and eventual redemption through acts of common decency."),
	builtin("238", "The Godfather", "en", "/3bhkrj58Vtu7enYsRolD1fZdja1.jpg", []int{18, 80},
		"The aging patriarch of an organized crime dynasty transfers control of his empire to his reluctant youngest son."),
	builtin("424", "Schindler's List", "en", "/sF1U4EUQS8YHUYjNl3pMGNIQyr0.jpg", []int{18, 36, 10752},
		"A German industrialist saves the lives of more than a thousand Jewish refugees by employing them in his factories."),
	builtin("680", "Pulp Fiction", "en", "", []int{53, 80},
		"The lives of two mob hitmen, a boxer, a gangster and his wife intertwine in four tales of violence and redemption."),
	builtin("155", "The Dark Knight", "en", "", []int{18, 28, 80, 53},
		"Batman raises the stakes in his war on crime until a criminal mastermind known as the Joker throws Gotham into anarchy."),
	builtin("27205", "Inception", "en", "", []int{28, 878, 12},
		"A thief who steals corporate secrets through dream-sharing technology is offered a chance to plant an idea instead."),
	builtin("157336", "Interstellar", "en", "", []int{12, 18, 878},
		"A team of explorers travels through a wormhole in space in an attempt to ensure humanity's survival."),
	builtin("603", "The Matrix", "en", "", []int{28, 878},
		"A computer hacker learns that the world he lives in is a simulation and joins a rebellion against its controllers."),
	builtin("129", "Spirited Away", "ja", "", []int{16, 10751, 14},
		"A sullen ten-year-old girl wanders into a world ruled by gods, witches and spirits, where humans are changed into beasts."),
	builtin("496243", "Parasite", "ko", "", []int{35, 53, 18},
		"A poor family schemes to become employed by a wealthy household by infiltrating it as unrelated, highly qualified staff."),
	builtin("862", "Toy Story", "en", "", []int{16, 12, 10751, 35},
		"A cowboy doll feels threatened when a new spaceman figure supplants him as top toy in a boy's bedroom."),
	builtin("105", "Back to the Future", "en", "", []int{12, 35, 878},
		"A teenager is accidentally sent thirty years into the past in a time-travelling car built by his eccentric scientist friend."),
	builtin("769", "GoodFellas", "en", "", []int{18, 80},
		"The story of Henry Hill and his life in the mob, covering his relationship with his wife and his partners in crime."),
	builtin("120", "The Lord of the Rings: The Fellowship of the Ring", "en", "", []int{12, 14, 28},
		"A meek hobbit and eight companions set out on a journey to destroy a powerful ring and save Middle-earth."),
	builtin("98", "Gladiator", "en", "", []int{28, 18, 12},
		"A betrayed Roman general is forced into slavery and rises through the arena to avenge the murder of his family."),
	builtin("8587", "The Lion King", "en", "", []int{10751, 16, 18},
		"A young lion prince flees his kingdom after his father's murder and must later return to reclaim his place."),
	builtin("329", "Jurassic Park", "en", "", []int{12, 878},
		"During a preview tour, a theme park of cloned dinosaurs suffers a major power breakdown that lets its creatures loose."),
	builtin("11", "Star Wars", "en", "", []int{12, 28, 878},
		"A farm boy joins a princess, a smuggler and an old knight to rescue the galaxy from an evil empire's planet-killing station."),
	builtin("348", "Alien", "en", "", []int{27, 878},
		"The crew of a commercial spacecraft encounters a deadly lifeform after investigating a mysterious transmission."),
	builtin("578", "Jaws", "en", "", []int{27, 53, 12},
		"When a killer shark unleashes chaos on a beach community, a local sheriff, a biologist and a fisherman hunt it down."),
	builtin("14160", "Up", "en", "", []int{16, 35, 10751, 12},
		"A grumpy widower ties thousands of balloons to his house and flies to South America, with a boy scout stowaway aboard."),
	builtin("354912", "Coco", "en", "", []int{10751, 16, 14, 10402},
		"An aspiring musician enters the Land of the Dead to find his great-great-grandfather, a legendary singer."),
	builtin("194", "Amélie", "fr", "", []int{35, 10749},
		"A shy Parisian waitress decides to secretly change the lives of the people around her for the better."),
	builtin("1417", "Pan's Labyrinth", "es", "", []int{14, 18, 10752},
		"In post-civil war Spain a girl escapes her cruel stepfather into a mysterious and eerie fantasy world."),
	builtin("274", "The Silence of the Lambs", "en", "", []int{80, 18, 53},
		"A young FBI cadet must confide in an incarcerated, manipulative killer to catch another serial killer."),
	builtin("807", "Se7en", "en", "", []int{80, 9648, 53},
		"Two detectives hunt a serial killer who uses the seven deadly sins as his motives."),
	builtin("597", "Titanic", "en", "", []int{18, 10749},
		"A young aristocrat falls in love with a penniless artist aboard the ill-fated maiden voyage of the Titanic."),
	builtin("10681", "WALL·E", "en", "", []int{16, 10751, 878},
		"A lonely waste-collecting robot on an abandoned Earth falls for a sleek probe sent to search for plant life."),
}

// defaultShows are served for TV when the catalog is unavailable.
var defaultShows = []models.CandidateItem{
	builtin("1396", "Breaking Bad", "en", "", []int{18, 80},
		"A chemistry teacher diagnosed with cancer turns to manufacturing methamphetamine to secure his family's future."),
	builtin("1399", "Game of Thrones", "en", "", []int{10765, 18, 10759},
		"Noble families fight for control of the Iron Throne while an ancient enemy returns after millennia in the north."),
	builtin("66732", "Stranger Things", "en", "", []int{18, 10765, 9648},
		"When a boy vanishes, a small town uncovers secret experiments, terrifying supernatural forces and one strange little girl."),
	builtin("2316", "The Office", "en", "", []int{35},
		"A mockumentary about the everyday lives of office employees at a paper company in Scranton, Pennsylvania."),
	builtin("1668", "Friends", "en", "", []int{35, 18},
		"Six young friends navigate love, careers and city life while sharing an apartment and a coffee shop in Manhattan."),
	builtin("1398", "The Sopranos", "en", "", []int{18, 80},
		"A New Jersey mob boss juggles the demands of his crime family, his real family and his therapist."),
	builtin("87108", "Chernobyl", "en", "", []int{18},
		"The true story of the 1986 nuclear disaster and the people who sacrificed everything to contain it."),
	builtin("1438", "The Wire", "en", "", []int{80, 18},
		"The Baltimore drug scene seen through the eyes of dealers and the police officers trying to bring them down."),
	builtin("19885", "Sherlock", "en", "", []int{80, 18, 9648},
		"A modern update finds the famous sleuth and his doctor partner solving crime in twenty-first century London."),
	builtin("70523", "Dark", "de", "", []int{80, 18, 9648, 10765},
		"A missing child sets four families on a frantic hunt for answers as they unearth a time-travel conspiracy."),
	builtin("71446", "Money Heist", "es", "", []int{80, 18},
		"A criminal mastermind called the Professor plans the biggest heist in history at the Royal Mint of Spain."),
	builtin("65494", "The Crown", "en", "", []int{18},
		"The reign of Queen Elizabeth II and the political rivalries and romances that shaped the second half of the century."),
	builtin("60059", "Better Call Saul", "en", "", []int{80, 18},
		"Six years before Breaking Bad, small-time lawyer Jimmy McGill transforms into morally challenged Saul Goodman."),
	builtin("93405", "Squid Game", "ko", "", []int{10759, 9648, 18},
		"Hundreds of cash-strapped players accept an invitation to compete in children's games with deadly stakes."),
	builtin("82856", "The Mandalorian", "en", "", []int{10765, 10759, 18},
		"After the fall of the Empire, a lone gunfighter makes his way through the outer reaches of the galaxy."),
	builtin("67070", "Fleabag", "en", "", []int{35, 18},
		"A dry-witted woman navigates life and love in London while trying to cope with a recent tragedy."),
	builtin("62560", "Mr. Robot", "en", "", []int{80, 18},
		"A young cyber-security engineer with social anxiety is recruited by an anarchist hacker group."),
	builtin("46648", "True Detective", "en", "", []int{18, 80, 9648},
		"Police investigations unearth personal and professional secrets of the detectives who lead them."),
	builtin("76331", "Succession", "en", "", []int{18},
		"The ruthless family that controls a global media empire fights over who will take over from the ageing patriarch."),
	builtin("456", "The Simpsons", "en", "", []int{10751, 16, 35},
		"The satiric adventures of a working-class family in the misfit city of Springfield."),
	builtin("1104", "Mad Men", "en", "", []int{18},
		"A drama about one of New York's most prestigious ad agencies at the beginning of the 1960s."),
	builtin("4607", "Lost", "en", "", []int{18, 10759, 9648},
		"The survivors of a plane crash are forced to live with each other on a remote island full of secrets."),
	builtin("1400", "Seinfeld", "en", "", []int{35},
		"A stand-up comedian and his three offbeat friends weather the pitfalls and payoffs of life in New York City."),
	builtin("246", "Avatar: The Last Airbender", "en", "", []int{16, 10759, 10765},
		"A young boy, the last of the air nomads, must master all four elements to end a century-long war."),
	builtin("42009", "Black Mirror", "en", "", []int{10765, 18, 9648},
		"An anthology series exploring a twisted, high-tech near future where humanity's innovations turn on them."),
	builtin("63247", "Westworld", "en", "", []int{10765, 37},
		"A dark odyssey about the dawn of artificial consciousness inside a futuristic theme park populated by androids."),
	builtin("63351", "Narcos", "en", "", []int{80, 18},
		"The true story of the rise of the Colombian cocaine cartels and the agents who went after them."),
	builtin("97546", "Ted Lasso", "en", "", []int{35, 18},
		"An American college football coach is hired to manage an English football club despite having no experience."),
	builtin("94605", "Arcane", "en", "", []int{16, 10765, 10759},
		"Two sisters are torn apart in the conflict between the utopian city of Piltover and the oppressed underground of Zaun."),
	builtin("1920", "Twin Peaks", "en", "", []int{18, 80, 9648},
		"An FBI agent investigates the murder of a young woman in a small, strange town in the Pacific Northwest."),
}

// Defaults returns a copy of the built-in items for a media type.
func Defaults(mt models.MediaType) []models.CandidateItem {
	src := defaultMovies
	if mt == models.MediaTV {
		src = defaultShows
	}
	out := make([]models.CandidateItem, len(src))
	copy(out, src)
	return out
}
